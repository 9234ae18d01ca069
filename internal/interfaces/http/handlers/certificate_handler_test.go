package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SeaCert-Compliance/internal/domain/certificate"
	"github.com/turtacn/SeaCert-Compliance/internal/domain/scheduling"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/SeaCert-Compliance/pkg/errors"
	"github.com/turtacn/SeaCert-Compliance/pkg/types/common"
)

func TestCertificateHandler_CreatePublishesUpdate(t *testing.T) {
	f := newFixture()
	r := f.newAPIRouter(t)
	sh := f.addShip(t, "MV Aurora", "9074729")

	w, env := doRequest(t, r, http.MethodPost, "/api/v1/certificates", CreateCertificateRequest{
		ShipID:           string(sh.ID),
		Name:             "Safety Equipment Certificate",
		Category:         "national",
		IssueDate:        "2025-07-01",
		SurveyAnnotation: "±3M",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var cert certificate.Certificate
	decodeData(t, env, &cert)
	assert.Equal(t, sh.ID, cert.ShipID)
	assert.Equal(t, "Safety Equipment Certificate", cert.Name)

	require.Len(t, f.publisher.events, 1)
	ev := f.publisher.events[0]
	assert.Equal(t, kafka.TopicCertificateUpdated, ev.Topic)
	assert.Equal(t, kafka.EventTypeCertificateUpdated, ev.EventType)
	payload, ok := ev.Payload.(kafka.CertificateUpdatedPayload)
	require.True(t, ok)
	assert.Equal(t, string(cert.ID), payload.CertificateID)
	assert.Equal(t, string(sh.ID), payload.ShipID)
}

func TestCertificateHandler_CreateFullTermWithoutValidDate(t *testing.T) {
	f := newFixture()
	r := f.newAPIRouter(t)
	sh := f.addShip(t, "MV Aurora", "9074729")

	w, env := doRequest(t, r, http.MethodPost, "/api/v1/certificates", CreateCertificateRequest{
		ShipID:    string(sh.ID),
		Name:      "Document of Compliance",
		Category:  scheduling.CategoryFullTerm,
		IssueDate: "2025-07-01",
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, string(errors.ErrCodeMissingRequiredDate), env.Error.Code)
	assert.Empty(t, f.publisher.events)
}

func TestCertificateHandler_CreateBadIssueDate(t *testing.T) {
	f := newFixture()
	r := f.newAPIRouter(t)
	sh := f.addShip(t, "MV Aurora", "9074729")

	w, env := doRequest(t, r, http.MethodPost, "/api/v1/certificates", CreateCertificateRequest{
		ShipID:    string(sh.ID),
		Name:      "Load Line Certificate",
		IssueDate: "01/07/2025",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, string(errors.ErrCodeBadRequest), env.Error.Code)
}

func TestCertificateHandler_GetWithStatus(t *testing.T) {
	f := newFixture()
	r := f.newAPIRouter(t)
	sh := f.addShip(t, "MV Aurora", "9074729")

	issue := time.Now().AddDate(0, -1, 0)
	valid := issue.AddDate(0, 0, 10) // already expired
	cert, err := f.certs.CreateCertificate(context.Background(), sh.ID,
		"Ship Radio Station Licence", "national", issue, &valid, "")
	require.NoError(t, err)

	w, env := doRequest(t, r, http.MethodGet, "/api/v1/certificates/"+string(cert.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var view certificate.StatusView
	decodeData(t, env, &view)
	require.NotNil(t, view.Certificate)
	assert.Equal(t, cert.ID, view.Certificate.ID)
	assert.Equal(t, scheduling.CertExpired, view.Status)
	require.NotNil(t, view.DaysToExpiry)
	assert.Negative(t, *view.DaysToExpiry)
}

func TestCertificateHandler_GetNotFound(t *testing.T) {
	f := newFixture()
	r := f.newAPIRouter(t)

	w, env := doRequest(t, r, http.MethodGet, "/api/v1/certificates/"+string(common.NewID()), nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, string(errors.ErrCodeCertificateNotFound), env.Error.Code)
}

func TestCertificateHandler_EndorseAdvancesDOCCycle(t *testing.T) {
	f := newFixture()
	r := f.newAPIRouter(t)
	sh := f.addShip(t, "MV Aurora", "9074729")

	issue := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)
	valid := time.Date(2030, time.June, 30, 0, 0, 0, 0, time.UTC)
	cert, err := f.certs.CreateCertificate(context.Background(), sh.ID,
		"Document of Compliance", scheduling.CategoryFullTerm, issue, &valid, "")
	require.NoError(t, err)
	require.NotNil(t, cert.NextSurveyDate)
	firstTarget := *cert.NextSurveyDate

	w, env := doRequest(t, r, http.MethodPost,
		fmt.Sprintf("/api/v1/certificates/%s/endorse", cert.ID),
		EndorseRequest{Date: firstTarget.Format(time.DateOnly)})
	require.Equal(t, http.StatusOK, w.Code)

	var got certificate.Certificate
	decodeData(t, env, &got)
	require.NotNil(t, got.LastEndorse)
	require.NotNil(t, got.NextSurveyDate)
	assert.True(t, got.NextSurveyDate.After(firstTarget),
		"endorsement should move the schedule to the next audit point")

	// Only the endorsement went through the API, so only it publishes.
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, kafka.TopicCertificateUpdated, f.publisher.events[0].Topic)
}

func TestCertificateHandler_Renew(t *testing.T) {
	f := newFixture()
	r := f.newAPIRouter(t)
	sh := f.addShip(t, "MV Aurora", "9074729")

	issue := time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC)
	valid := time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC)
	cert, err := f.certs.CreateCertificate(context.Background(), sh.ID,
		"Document of Compliance", scheduling.CategoryFullTerm, issue, &valid, "")
	require.NoError(t, err)

	w, env := doRequest(t, r, http.MethodPost,
		fmt.Sprintf("/api/v1/certificates/%s/renew", cert.ID),
		RenewRequest{IssueDate: "2026-03-01", ValidDate: "2031-02-28"})
	require.Equal(t, http.StatusOK, w.Code)

	var got certificate.Certificate
	decodeData(t, env, &got)
	require.NotNil(t, got.ValidDate)
	assert.Equal(t, 2031, got.ValidDate.Year())
	assert.Nil(t, got.LastEndorse)
}

func TestCertificateHandler_Window(t *testing.T) {
	f := newFixture()
	r := f.newAPIRouter(t)
	sh := f.addShip(t, "MV Aurora", "9074729")

	issue := time.Now().AddDate(0, -1, 0)
	cert, err := f.certs.CreateCertificate(context.Background(), sh.ID,
		"Safety Equipment Certificate", "national", issue, nil, "±3M")
	require.NoError(t, err)

	target := scheduling.NormalizeDate(time.Now().AddDate(0, 6, 0))
	_, err = f.certs.SetNextSurvey(context.Background(), cert.ID, &target, "annual", "±3M")
	require.NoError(t, err)

	w, env := doRequest(t, r, http.MethodGet,
		fmt.Sprintf("/api/v1/certificates/%s/window", cert.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var view WindowView
	decodeData(t, env, &view)
	assert.Equal(t, cert.ID, view.CertificateID)
	require.True(t, view.Schedulable)
	require.NotNil(t, view.Window)
	assert.Equal(t, target, view.Window.TargetDate)
	assert.NotEmpty(t, view.WindowStatus)
}

func TestCertificateHandler_WindowUnschedulable(t *testing.T) {
	f := newFixture()
	r := f.newAPIRouter(t)
	sh := f.addShip(t, "MV Aurora", "9074729")

	issue := time.Now().AddDate(0, -1, 0)
	cert, err := f.certs.CreateCertificate(context.Background(), sh.ID,
		"Ship Radio Station Licence", "national", issue, nil, "")
	require.NoError(t, err)

	w, env := doRequest(t, r, http.MethodGet,
		fmt.Sprintf("/api/v1/certificates/%s/window", cert.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var view WindowView
	decodeData(t, env, &view)
	assert.False(t, view.Schedulable)
	assert.Nil(t, view.Window)
}

func TestCertificateHandler_Delete(t *testing.T) {
	f := newFixture()
	r := f.newAPIRouter(t)
	sh := f.addShip(t, "MV Aurora", "9074729")

	issue := time.Now().AddDate(0, -1, 0)
	cert, err := f.certs.CreateCertificate(context.Background(), sh.ID,
		"Load Line Certificate", "national", issue, nil, "")
	require.NoError(t, err)

	w, _ := doRequest(t, r, http.MethodDelete, "/api/v1/certificates/"+string(cert.ID), nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	_, err = f.certs.GetCertificate(context.Background(), cert.ID)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCertificateNotFound))
}
