// Package testutil provides shared test utilities, mocks, and fixtures.
package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"chatgrid/internal/domain"
)

// ErrMockNotFound is returned by map-backed mocks for missing rows
var ErrMockNotFound = errors.New("mock: not found")

// MockUserRepository implements domain.UserRepository for testing
type MockUserRepository struct {
	mu sync.RWMutex

	// Function overrides - set these to customize behavior
	CreateFunc        func(ctx context.Context, user *domain.User) error
	GetByIDFunc       func(ctx context.Context, id int64) (*domain.User, error)
	GetByUsernameFunc func(ctx context.Context, username string) (*domain.User, error)

	// In-memory storage for simple tests
	Users  map[int64]*domain.User
	nextID int64
}

// NewMockUserRepository creates a new MockUserRepository with initialized maps
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users: make(map[int64]*domain.User),
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.Users {
		if u.Username == user.Username {
			return domain.ErrUsernameExists
		}
	}

	if user.ID == 0 {
		m.nextID++
		user.ID = m.nextID
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	m.Users[user.ID] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if user, ok := m.Users[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.Users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// MockChatRepository implements domain.ChatRepository for testing
type MockChatRepository struct {
	mu sync.RWMutex

	CreateFunc              func(ctx context.Context, chat *domain.Chat) error
	GetByIDFunc             func(ctx context.Context, id int64) (*domain.Chat, error)
	ListWithActiveUsersFunc func(ctx context.Context) ([]*domain.ChatSummary, error)
	FindByNamePrefixFunc    func(ctx context.Context, prefix string) ([]*domain.Chat, error)

	Chats  map[int64]*domain.Chat
	nextID int64
}

// NewMockChatRepository creates a new MockChatRepository with initialized maps
func NewMockChatRepository() *MockChatRepository {
	return &MockChatRepository{
		Chats: make(map[int64]*domain.Chat),
	}
}

func (m *MockChatRepository) Create(ctx context.Context, chat *domain.Chat) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, chat)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if chat.ID == 0 {
		m.nextID++
		chat.ID = m.nextID
	}
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = time.Now()
	}
	m.Chats[chat.ID] = chat
	return nil
}

func (m *MockChatRepository) GetByID(ctx context.Context, id int64) (*domain.Chat, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if chat, ok := m.Chats[id]; ok {
		return chat, nil
	}
	return nil, domain.ErrChatNotFound
}

func (m *MockChatRepository) ListWithActiveUsers(ctx context.Context) ([]*domain.ChatSummary, error) {
	if m.ListWithActiveUsersFunc != nil {
		return m.ListWithActiveUsersFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*domain.ChatSummary
	for _, chat := range m.Chats {
		out = append(out, &domain.ChatSummary{ID: chat.ID, Name: chat.Name})
	}
	return out, nil
}

func (m *MockChatRepository) FindByNamePrefix(ctx context.Context, prefix string) ([]*domain.Chat, error) {
	if m.FindByNamePrefixFunc != nil {
		return m.FindByNamePrefixFunc(ctx, prefix)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*domain.Chat
	for _, chat := range m.Chats {
		if len(chat.Name) >= len(prefix) && chat.Name[:len(prefix)] == prefix {
			out = append(out, chat)
		}
	}
	return out, nil
}

// MockMessageRepository implements domain.MessageRepository for testing
type MockMessageRepository struct {
	mu sync.RWMutex

	CreateFunc    func(ctx context.Context, message *domain.Message) error
	GetByChatFunc func(ctx context.Context, chatID int64, limit int) ([]*domain.Message, error)

	Messages []*domain.Message
	nextID   int64
}

// NewMockMessageRepository creates a new MockMessageRepository
func NewMockMessageRepository() *MockMessageRepository {
	return &MockMessageRepository{}
}

func (m *MockMessageRepository) Create(ctx context.Context, message *domain.Message) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, message)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	message.ID = m.nextID
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	m.Messages = append(m.Messages, message)
	return nil
}

func (m *MockMessageRepository) GetByChat(ctx context.Context, chatID int64, limit int) ([]*domain.Message, error) {
	if m.GetByChatFunc != nil {
		return m.GetByChatFunc(ctx, chatID, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*domain.Message
	for i := len(m.Messages) - 1; i >= 0 && len(out) < limit; i-- {
		if m.Messages[i].ChatID == chatID {
			out = append(out, m.Messages[i])
		}
	}
	return out, nil
}

// MockOnlineUserRepository implements domain.OnlineUserRepository for testing
type MockOnlineUserRepository struct {
	mu sync.RWMutex

	AddFunc             func(ctx context.Context, userID, chatID int64) error
	RemoveFunc          func(ctx context.Context, userID, chatID int64) error
	CountByChatFunc     func(ctx context.Context, chatID int64) (int64, error)
	UsernamesByChatFunc func(ctx context.Context, chatID int64) ([]string, error)

	// Online maps chatID to the user ids currently present
	Online map[int64]map[int64]bool
	// Names maps userID to username for UsernamesByChat
	Names map[int64]string
}

// NewMockOnlineUserRepository creates a new MockOnlineUserRepository
func NewMockOnlineUserRepository() *MockOnlineUserRepository {
	return &MockOnlineUserRepository{
		Online: make(map[int64]map[int64]bool),
		Names:  make(map[int64]string),
	}
}

func (m *MockOnlineUserRepository) Add(ctx context.Context, userID, chatID int64) error {
	if m.AddFunc != nil {
		return m.AddFunc(ctx, userID, chatID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Online[chatID] == nil {
		m.Online[chatID] = make(map[int64]bool)
	}
	m.Online[chatID][userID] = true
	return nil
}

func (m *MockOnlineUserRepository) Remove(ctx context.Context, userID, chatID int64) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, userID, chatID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.Online[chatID], userID)
	return nil
}

func (m *MockOnlineUserRepository) CountByChat(ctx context.Context, chatID int64) (int64, error) {
	if m.CountByChatFunc != nil {
		return m.CountByChatFunc(ctx, chatID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	return int64(len(m.Online[chatID])), nil
}

func (m *MockOnlineUserRepository) UsernamesByChat(ctx context.Context, chatID int64) ([]string, error) {
	if m.UsernamesByChatFunc != nil {
		return m.UsernamesByChatFunc(ctx, chatID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for userID := range m.Online[chatID] {
		if name, ok := m.Names[userID]; ok {
			names = append(names, name)
		}
	}
	return names, nil
}

// MockSubscription implements domain.Subscription for testing
type MockSubscription struct {
	Ch        chan string
	closeOnce sync.Once
}

// NewMockSubscription creates a subscription with a buffered channel
func NewMockSubscription() *MockSubscription {
	return &MockSubscription{Ch: make(chan string, 16)}
}

func (s *MockSubscription) Messages() <-chan string {
	return s.Ch
}

func (s *MockSubscription) Close() error {
	s.closeOnce.Do(func() { close(s.Ch) })
	return nil
}

// MockBus implements domain.Bus for testing. Published payloads are recorded
// per channel; subscriptions are created lazily and fed by Publish.
type MockBus struct {
	mu sync.Mutex

	PublishFunc    func(ctx context.Context, channel, payload string) error
	SubscribeFunc  func(ctx context.Context, channel string) (domain.Subscription, error)
	PushRecentFunc func(ctx context.Context, key, payload string, limit int64) error
	RecentFunc     func(ctx context.Context, key string, n int64) ([]string, error)

	Published     map[string][]string
	Lists         map[string][]string
	Subscriptions map[string][]*MockSubscription
}

// NewMockBus creates a new MockBus with initialized maps
func NewMockBus() *MockBus {
	return &MockBus{
		Published:     make(map[string][]string),
		Lists:         make(map[string][]string),
		Subscriptions: make(map[string][]*MockSubscription),
	}
}

func (b *MockBus) Publish(ctx context.Context, channel, payload string) error {
	if b.PublishFunc != nil {
		return b.PublishFunc(ctx, channel, payload)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.Published[channel] = append(b.Published[channel], payload)
	for _, sub := range b.Subscriptions[channel] {
		select {
		case sub.Ch <- payload:
		default:
		}
	}
	return nil
}

func (b *MockBus) Subscribe(ctx context.Context, channel string) (domain.Subscription, error) {
	if b.SubscribeFunc != nil {
		return b.SubscribeFunc(ctx, channel)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := NewMockSubscription()
	b.Subscriptions[channel] = append(b.Subscriptions[channel], sub)
	return sub, nil
}

func (b *MockBus) PushRecent(ctx context.Context, key, payload string, limit int64) error {
	if b.PushRecentFunc != nil {
		return b.PushRecentFunc(ctx, key, payload, limit)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	list := append([]string{payload}, b.Lists[key]...)
	if int64(len(list)) > limit {
		list = list[:limit]
	}
	b.Lists[key] = list
	return nil
}

func (b *MockBus) Recent(ctx context.Context, key string, n int64) ([]string, error) {
	if b.RecentFunc != nil {
		return b.RecentFunc(ctx, key, n)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.Lists[key]
	if int64(len(list)) > n {
		list = list[:n]
	}
	out := make([]string, len(list))
	copy(out, list)
	return out, nil
}

// SubscriberCount returns how many subscriptions a channel has
func (b *MockBus) SubscriberCount(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Subscriptions[channel])
}

// PublishedOn returns the payloads published to a channel so far
func (b *MockBus) PublishedOn(channel string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, len(b.Published[channel]))
	copy(out, b.Published[channel])
	return out
}

// MockSuggestor implements domain.Suggestor for testing
type MockSuggestor struct {
	SuggestFunc func(ctx context.Context, turns []domain.ChatTurn) (string, error)
	Response    string
	Err         error
}

func (m *MockSuggestor) Suggest(ctx context.Context, turns []domain.ChatTurn) (string, error) {
	if m.SuggestFunc != nil {
		return m.SuggestFunc(ctx, turns)
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}
