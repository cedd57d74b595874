package http

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, 201, "created", map[string]string{"id": "abc"})

	assert.Equal(t, 201, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "created", body["message"])
	assert.Equal(t, "abc", body["data"].(map[string]any)["id"])
}

func TestWriteErrorExtra_FlattensFields(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteErrorExtra(rec, 429, "Too many login attempts.", map[string]any{"retry_after": 120})

	assert.Equal(t, 429, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Too many login attempts.", body["message"])
	assert.Equal(t, float64(120), body["retry_after"])
	_, hasData := body["data"]
	assert.False(t, hasData)
}

func TestWriteError_NoExtraFields(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteNotFound(rec, "Token not found")

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Token not found", body["message"])
}
