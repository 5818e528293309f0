package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"locktheday/internal/models"
	"locktheday/internal/repositories"
	"locktheday/internal/storage"
)

type CapsuleRepositoryMock struct {
	mock.Mock
}

func (m *CapsuleRepositoryMock) CreateCapsule(ctx context.Context, c models.Capsule) (models.Capsule, error) {
	args := m.Called(ctx, c)
	var capsule models.Capsule
	if val := args.Get(0); val != nil {
		capsule = val.(models.Capsule)
	}
	return capsule, args.Error(1)
}

func (m *CapsuleRepositoryMock) GetCapsule(ctx context.Context, id int) (models.Capsule, error) {
	args := m.Called(ctx, id)
	var capsule models.Capsule
	if val := args.Get(0); val != nil {
		capsule = val.(models.Capsule)
	}
	return capsule, args.Error(1)
}

func (m *CapsuleRepositoryMock) GetByShareToken(ctx context.Context, token string) (models.Capsule, error) {
	args := m.Called(ctx, token)
	var capsule models.Capsule
	if val := args.Get(0); val != nil {
		capsule = val.(models.Capsule)
	}
	return capsule, args.Error(1)
}

func (m *CapsuleRepositoryMock) ListPublic(ctx context.Context) ([]models.Capsule, error) {
	args := m.Called(ctx)
	var list []models.Capsule
	if val := args.Get(0); val != nil {
		list = val.([]models.Capsule)
	}
	return list, args.Error(1)
}

func (m *CapsuleRepositoryMock) ListOwn(ctx context.Context, ownerID int) ([]models.Capsule, error) {
	args := m.Called(ctx, ownerID)
	var list []models.Capsule
	if val := args.Get(0); val != nil {
		list = val.([]models.Capsule)
	}
	return list, args.Error(1)
}

func (m *CapsuleRepositoryMock) Delete(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *CapsuleRepositoryMock) Count(ctx context.Context) (int, int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Int(1), args.Error(2)
}

type ShareRepositoryMock struct {
	mock.Mock
}

func (m *ShareRepositoryMock) CreateShare(ctx context.Context, s models.SharedCapsule) (models.SharedCapsule, error) {
	args := m.Called(ctx, s)
	var share models.SharedCapsule
	if val := args.Get(0); val != nil {
		share = val.(models.SharedCapsule)
	}
	return share, args.Error(1)
}

func (m *ShareRepositoryMock) HasGrant(ctx context.Context, capsuleID, userID int) (bool, error) {
	args := m.Called(ctx, capsuleID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ShareRepositoryMock) ListForRecipient(ctx context.Context, userID int) ([]repositories.SharedCapsuleView, error) {
	args := m.Called(ctx, userID)
	var list []repositories.SharedCapsuleView
	if val := args.Get(0); val != nil {
		list = val.([]repositories.SharedCapsuleView)
	}
	return list, args.Error(1)
}

type FriendRepositoryMock struct {
	mock.Mock
}

func (m *FriendRepositoryMock) CreateRequest(ctx context.Context, requesterID, addresseeID int) (models.Friendship, error) {
	args := m.Called(ctx, requesterID, addresseeID)
	var edge models.Friendship
	if val := args.Get(0); val != nil {
		edge = val.(models.Friendship)
	}
	return edge, args.Error(1)
}

func (m *FriendRepositoryMock) GetEdge(ctx context.Context, id int) (models.Friendship, error) {
	args := m.Called(ctx, id)
	var edge models.Friendship
	if val := args.Get(0); val != nil {
		edge = val.(models.Friendship)
	}
	return edge, args.Error(1)
}

func (m *FriendRepositoryMock) Accept(ctx context.Context, id int) (models.Friendship, error) {
	args := m.Called(ctx, id)
	var edge models.Friendship
	if val := args.Get(0); val != nil {
		edge = val.(models.Friendship)
	}
	return edge, args.Error(1)
}

func (m *FriendRepositoryMock) DeleteEdge(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *FriendRepositoryMock) AreFriends(ctx context.Context, userID, otherID int) (bool, error) {
	args := m.Called(ctx, userID, otherID)
	return args.Bool(0), args.Error(1)
}

func (m *FriendRepositoryMock) ListFriends(ctx context.Context, userID int) ([]models.FriendSummary, error) {
	args := m.Called(ctx, userID)
	var list []models.FriendSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.FriendSummary)
	}
	return list, args.Error(1)
}

func (m *FriendRepositoryMock) ListIncoming(ctx context.Context, userID int) ([]models.FriendSummary, error) {
	args := m.Called(ctx, userID)
	var list []models.FriendSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.FriendSummary)
	}
	return list, args.Error(1)
}

func (m *FriendRepositoryMock) DeleteAccepted(ctx context.Context, userID, friendID int) error {
	args := m.Called(ctx, userID, friendID)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, senderID, receiverID int, content string) (models.Message, error) {
	args := m.Called(ctx, senderID, receiverID, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) Conversation(ctx context.Context, userID, friendID int) ([]models.Message, error) {
	args := m.Called(ctx, userID, friendID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) MarkRead(ctx context.Context, senderID, receiverID int) (int, error) {
	args := m.Called(ctx, senderID, receiverID)
	return args.Int(0), args.Error(1)
}

func (m *MessageRepositoryMock) CountUnread(ctx context.Context, receiverID int) (int, error) {
	args := m.Called(ctx, receiverID)
	return args.Int(0), args.Error(1)
}

type ProfileRepositoryMock struct {
	mock.Mock
}

func (m *ProfileRepositoryMock) CreateProfile(ctx context.Context, email, passwordHash, fullName string) (models.Profile, error) {
	args := m.Called(ctx, email, passwordHash, fullName)
	var p models.Profile
	if val := args.Get(0); val != nil {
		p = val.(models.Profile)
	}
	return p, args.Error(1)
}

func (m *ProfileRepositoryMock) GetByID(ctx context.Context, id int) (models.Profile, error) {
	args := m.Called(ctx, id)
	var p models.Profile
	if val := args.Get(0); val != nil {
		p = val.(models.Profile)
	}
	return p, args.Error(1)
}

func (m *ProfileRepositoryMock) GetByEmail(ctx context.Context, email string) (models.Profile, error) {
	args := m.Called(ctx, email)
	var p models.Profile
	if val := args.Get(0); val != nil {
		p = val.(models.Profile)
	}
	return p, args.Error(1)
}

func (m *ProfileRepositoryMock) Search(ctx context.Context, term string, excludeID int) ([]models.Profile, error) {
	args := m.Called(ctx, term, excludeID)
	var list []models.Profile
	if val := args.Get(0); val != nil {
		list = val.([]models.Profile)
	}
	return list, args.Error(1)
}

func (m *ProfileRepositoryMock) Delete(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ProfileRepositoryMock) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type RoleRepositoryMock struct {
	mock.Mock
}

func (m *RoleRepositoryMock) GetRole(ctx context.Context, userID int) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *RoleRepositoryMock) SetRole(ctx context.Context, userID int, newRole string, changedBy int) (models.RoleChange, error) {
	args := m.Called(ctx, userID, newRole, changedBy)
	var change models.RoleChange
	if val := args.Get(0); val != nil {
		change = val.(models.RoleChange)
	}
	return change, args.Error(1)
}

func (m *RoleRepositoryMock) ListUsersWithRoles(ctx context.Context) ([]models.UserWithRole, error) {
	args := m.Called(ctx)
	var list []models.UserWithRole
	if val := args.Get(0); val != nil {
		list = val.([]models.UserWithRole)
	}
	return list, args.Error(1)
}

func (m *RoleRepositoryMock) ListRoleChanges(ctx context.Context) ([]models.RoleChange, error) {
	args := m.Called(ctx)
	var list []models.RoleChange
	if val := args.Get(0); val != nil {
		list = val.([]models.RoleChange)
	}
	return list, args.Error(1)
}

type UploaderMock struct {
	mock.Mock
}

func (m *UploaderMock) Upload(ctx context.Context, key string, body io.Reader) (string, error) {
	args := m.Called(ctx, key, body)
	return args.String(0), args.Error(1)
}

var _ repositories.CapsuleRepository = (*CapsuleRepositoryMock)(nil)
var _ repositories.ShareRepository = (*ShareRepositoryMock)(nil)
var _ repositories.FriendRepository = (*FriendRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.ProfileRepository = (*ProfileRepositoryMock)(nil)
var _ repositories.RoleRepository = (*RoleRepositoryMock)(nil)
var _ storage.Uploader = (*UploaderMock)(nil)
