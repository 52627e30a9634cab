package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowway/knowway-backend/models"
	"github.com/knowway/knowway-backend/testutils"
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []ChatMessageView
	err  error
}

func (p *recordingPublisher) PublishChat(_ context.Context, msg ChatMessageView) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func TestChat_NotEnrolled(t *testing.T) {
	db := testutils.SetupTestDB(t)
	pub := &recordingPublisher{}
	svc := NewChatService(db, pub, nil)

	admin := testutils.CreateAdmin(t, db)
	outsider := testutils.CreateUser(t, db, models.RoleLearner, 0)
	course := testutils.CreateCourse(t, db, admin.ID, "Private", 0)

	_, err := svc.SendMessage(context.Background(), course.ID, outsider.ID, "hello")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindForbidden))
	assert.Equal(t, "You must be enrolled to access chat", messageOf(err))

	_, err = svc.GetMessages(course.ID, outsider.ID)
	assert.True(t, IsKind(err, KindForbidden))

	var stored int64
	db.Model(&models.ChatMessage{}).Count(&stored)
	assert.Zero(t, stored)
	assert.Empty(t, pub.msgs)
}

func TestChat_SendAndRead(t *testing.T) {
	db := testutils.SetupTestDB(t)
	pub := &recordingPublisher{}
	svc := NewChatService(db, pub, nil)

	admin := testutils.CreateAdmin(t, db)
	alice := testutils.CreateUser(t, db, models.RoleLearner, 0)
	bob := testutils.CreateUser(t, db, models.RoleLearner, 0)
	course := testutils.CreateCourse(t, db, admin.ID, "Shared", 0)
	testutils.Enroll(t, db, alice.ID, course.ID, 0)
	testutils.Enroll(t, db, bob.ID, course.ID, 0)

	ctx := context.Background()
	first, err := svc.SendMessage(ctx, course.ID, alice.ID, "  hi there  ")
	require.NoError(t, err)
	assert.Equal(t, "hi there", first.Message)
	assert.Equal(t, alice.Username, first.Username)
	assert.True(t, first.IsOwn)

	_, err = svc.SendMessage(ctx, course.ID, bob.ID, "hello alice")
	require.NoError(t, err)
	require.Len(t, pub.msgs, 2)

	msgs, err := svc.GetMessages(course.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hi there", msgs[0].Message)
	assert.False(t, msgs[0].IsOwn)
	assert.Equal(t, "hello alice", msgs[1].Message)
	assert.True(t, msgs[1].IsOwn)
}

func TestChat_Validation(t *testing.T) {
	db := testutils.SetupTestDB(t)
	svc := NewChatService(db, nil, nil)

	admin := testutils.CreateAdmin(t, db)
	course := testutils.CreateCourse(t, db, admin.ID, "Course", 0)
	testutils.Enroll(t, db, admin.ID, course.ID, 0)

	_, err := svc.SendMessage(context.Background(), course.ID, admin.ID, "   ")
	assert.Equal(t, "Message is required", messageOf(err))

	_, err = svc.SendMessage(context.Background(), course.ID, admin.ID, strings.Repeat("é", 1001))
	assert.Equal(t, "Message too long (max 1000 characters)", messageOf(err))

	_, err = svc.SendMessage(context.Background(), course.ID, admin.ID, strings.Repeat("é", 1000))
	assert.NoError(t, err)
}

func TestChat_PublishFailureStillStores(t *testing.T) {
	db := testutils.SetupTestDB(t)
	svc := NewChatService(db, &recordingPublisher{err: errors.New("relay down")}, nil)

	admin := testutils.CreateAdmin(t, db)
	course := testutils.CreateCourse(t, db, admin.ID, "Course", 0)
	testutils.Enroll(t, db, admin.ID, course.ID, 0)

	_, err := svc.SendMessage(context.Background(), course.ID, admin.ID, "still here")
	require.NoError(t, err)

	var stored int64
	db.Model(&models.ChatMessage{}).Count(&stored)
	assert.Equal(t, int64(1), stored)
}
