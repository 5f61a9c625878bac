package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/aulora-api/internal/models"
	appErrors "github.com/noah-isme/aulora-api/pkg/errors"
)

func TestEnrollCourseAndAlias(t *testing.T) {
	api := newTestAPI()

	w := api.do(http.MethodPost, "/api/v1/cursos/c-1/inscribirse", "student", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "student-1", api.enrollment.lastUser)
	assert.Equal(t, "c-1", api.enrollment.lastTarget)

	w = api.do(http.MethodPost, "/api/v1/courses/c-2/inscribirse", "student", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "c-2", api.enrollment.lastTarget)
}

func TestEnrollCourseAlreadyEnrolled(t *testing.T) {
	api := newTestAPI()
	api.enrollment.enrollErr = appErrors.Clone(appErrors.ErrAlreadyEnrolled, "already enrolled in this course")

	w := api.do(http.MethodPost, "/api/v1/cursos/c-1/inscribirse", "student", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "ALREADY_ENROLLED", env.Error.Code)
}

func TestPurchaseBodyIsOptional(t *testing.T) {
	api := newTestAPI()

	w := api.do(http.MethodPost, "/api/v1/itinerarios/it-1/pagar", "student", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.PurchaseItineraryRequest{}, api.enrollment.lastPayment)

	w = api.do(http.MethodPost, "/api/v1/itinerarios/it-1/pagar", "student", `{"method":"paypal"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.PaymentPayPal, api.enrollment.lastPayment.Method)

	w = api.do(http.MethodPost, "/api/v1/itinerarios/it-1/pagar", "student", `{"method":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnrollItinerary(t *testing.T) {
	api := newTestAPI()

	w := api.do(http.MethodPost, "/api/v1/itinerarios/it-1/inscribirse", "student", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "it-1", api.enrollment.lastTarget)
}

func TestMyCoursesEmptyAndFailure(t *testing.T) {
	api := newTestAPI()

	w := api.do(http.MethodGet, "/api/v1/mis-cursos", "student", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", string(decodeEnvelope(t, w).Data))

	w = api.do(http.MethodGet, "/api/v1/mis-itinerarios", "student", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
