package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowway/knowway-backend/models"
	"github.com/knowway/knowway-backend/testutils"
)

func TestWebhookClient_Trigger(t *testing.T) {
	var got ScrapeJob
	var token string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = r.Header.Get(WebhookTokenHeader)
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewWebhookClient(srv.URL, "shared", time.Second)
	err := client.Trigger(context.Background(), ScrapeJob{URL: "https://example.com", Category: "news", UserID: 7})
	require.NoError(t, err)
	assert.Equal(t, "shared", token)
	assert.Equal(t, "https://example.com", got.URL)
	assert.Equal(t, uint(7), got.UserID)
}

func TestWebhookClient_Failures(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer failing.Close()
	assert.Error(t, NewWebhookClient(failing.URL, "", time.Second).Trigger(context.Background(), ScrapeJob{}))

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()
	assert.Error(t, NewWebhookClient(slow.URL, "", 50*time.Millisecond).Trigger(context.Background(), ScrapeJob{}))

	assert.ErrorIs(t, NewWebhookClient("", "", time.Second).Trigger(context.Background(), ScrapeJob{}), errWebhookNotConfigured)
}

type fakeTrigger struct {
	jobs []ScrapeJob
	err  error
}

func (f *fakeTrigger) Trigger(_ context.Context, job ScrapeJob) error {
	f.jobs = append(f.jobs, job)
	return f.err
}

func TestScrapingService_Trigger(t *testing.T) {
	db := testutils.SetupTestDB(t)
	trigger := &fakeTrigger{}
	svc := NewScrapingService(db, trigger, "", nil)

	assert.True(t, IsKind(svc.Trigger(context.Background(), 1, "", ""), KindValidation))
	assert.True(t, IsKind(svc.Trigger(context.Background(), 1, "ftp://example.com", ""), KindValidation))
	assert.True(t, IsKind(svc.Trigger(context.Background(), 1, "not a url", ""), KindValidation))
	assert.Empty(t, trigger.jobs)

	require.NoError(t, svc.Trigger(context.Background(), 3, "https://example.com/page", ""))
	require.Len(t, trigger.jobs, 1)
	assert.Equal(t, "general", trigger.jobs[0].Category)
	assert.Equal(t, uint(3), trigger.jobs[0].UserID)
	assert.NotEmpty(t, trigger.jobs[0].Timestamp)

	trigger.err = context.DeadlineExceeded
	err := svc.Trigger(context.Background(), 3, "https://example.com/page", "news")
	assert.True(t, IsKind(err, KindUpstreamUnavailable))
}

func TestScrapingService_Data(t *testing.T) {
	db := testutils.SetupTestDB(t)
	svc := NewScrapingService(db, nil, "s3cret", nil)

	admin := testutils.CreateAdmin(t, db)
	other := testutils.CreateUser(t, db, models.RoleLearner, 0)

	assert.True(t, IsKind(svc.VerifyWebhook("wrong"), KindUnauthorized))
	assert.NoError(t, svc.VerifyWebhook("s3cret"))

	mine, err := svc.Receive(ScrapedInput{Content: "body", Category: "news", UserID: &admin.ID})
	require.NoError(t, err)
	assert.Equal(t, "Untitled", mine.Title)
	_, err = svc.Receive(ScrapedInput{Title: "Anonymous"})
	require.NoError(t, err)

	list, err := svc.List("", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), list.Total)

	list, err = svc.List("news", 1, 10)
	require.NoError(t, err)
	require.Len(t, list.Data, 1)
	require.NotNil(t, list.Data[0].ScrapedBy)
	assert.Equal(t, admin.Username, *list.Data[0].ScrapedBy)

	rows, err := svc.Mine(admin.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	assert.True(t, IsKind(svc.Delete(other.ID, mine.ID), KindNotFound))
	assert.NoError(t, svc.Delete(admin.ID, mine.ID))
	assert.True(t, IsKind(svc.Delete(admin.ID, mine.ID), KindNotFound))
}

func TestScrapingService_OpenWebhook(t *testing.T) {
	svc := NewScrapingService(nil, nil, "", nil)
	assert.NoError(t, svc.VerifyWebhook(""))
}

func TestScrapingService_ReceiveTruncatesTitleByCharacter(t *testing.T) {
	db := testutils.SetupTestDB(t)
	svc := NewScrapingService(db, nil, "", nil)

	row, err := svc.Receive(ScrapedInput{Title: strings.Repeat("é", 300)})
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(row.Title))
	assert.Equal(t, 255, utf8.RuneCountInString(row.Title))

	var stored models.ScrapedData
	require.NoError(t, db.First(&stored, row.ID).Error)
	assert.Equal(t, row.Title, stored.Title)

	row, err = svc.Receive(ScrapedInput{Title: strings.Repeat("é", 200)})
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("é", 200), row.Title)
}
