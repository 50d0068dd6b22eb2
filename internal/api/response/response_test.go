package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shulkerhost/shulker/internal/fault"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	payload := map[string]string{"hello": "world"}

	WriteJSON(w, http.StatusOK, payload)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &body)
	require.NoError(t, err)
	assert.Equal(t, "world", body["hello"])
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()

	WriteError(w, http.StatusBadRequest, "something went wrong")

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &body)
	require.NoError(t, err)
	assert.Equal(t, "something went wrong", body["error"])
}

func TestWriteFault_StatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fault.Validationf("bad path"), http.StatusBadRequest},
		{fault.MaintenanceRequiredf("flag off"), http.StatusBadRequest},
		{fault.Forbiddenf("outside roots"), http.StatusForbidden},
		{fault.NotFoundf("missing"), http.StatusNotFound},
		{fault.Conflictf("busy"), http.StatusConflict},
		{fault.Storagef("boom"), http.StatusInternalServerError},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		WriteFault(w, tc.err)
		assert.Equal(t, tc.want, w.Code, tc.err.Error())
	}
}
