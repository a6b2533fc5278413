package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	salescrm "github.com/phbpx/sales-crm"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{salescrm.ErrLeadNotFound, http.StatusNotFound},
		{fmt.Errorf("get: %w", salescrm.ErrTeamNotFound), http.StatusNotFound},
		{salescrm.ErrDuplicatedUser, http.StatusConflict},
		{salescrm.ErrInvalidStatus, http.StatusBadRequest},
		{salescrm.ErrInvalidPeriod, http.StatusBadRequest},
		{salescrm.ErrForbidden, http.StatusForbidden},
		{salescrm.ErrUnknownReference, http.StatusUnprocessableEntity},
		{errBadID, http.StatusBadRequest},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestRespondServiceErrHidesInternalErrors(t *testing.T) {
	w := httptest.NewRecorder()
	respondServiceErr(context.Background(), w, errors.New("pq: password authentication failed"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, errInternal.Error(), body["error"])
}

func TestOptionalID(t *testing.T) {
	id := "aaaaaaaa-0000-0000-0000-000000000001"
	bad := "nope"

	assert.NoError(t, optionalID(nil))
	assert.NoError(t, optionalID(&id))
	assert.ErrorIs(t, optionalID(&bad), errBadID)
}
