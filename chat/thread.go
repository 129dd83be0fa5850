// Copyright 2025 Sidekick Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package chat

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sidekick-labs/sidekick/core"
)

// Message is one recorded turn of a conversation thread.
type Message struct {
	Role      core.MessageRole
	Content   string
	Timestamp time.Time
	// Sources lists the documents whose content grounded this turn.
	Sources []core.ID
}

// Thread is a user-scoped conversation. Values handed out by ThreadStore are
// snapshots; mutation goes through the store.
type Thread struct {
	Id          uuid.UUID
	UserId      string
	Title       string
	Messages    []Message
	Created     time.Time
	LastUpdated time.Time
}

// ThreadStore keeps conversation threads in memory, scoped per user.
// Threads do not survive a process restart.
type ThreadStore struct {
	mu      sync.RWMutex
	threads map[uuid.UUID]*Thread
	now     func() time.Time
}

// NewThreadStore creates an empty thread store.
func NewThreadStore() *ThreadStore {
	return &ThreadStore{
		threads: make(map[uuid.UUID]*Thread),
		now:     time.Now,
	}
}

// Create starts a new thread for the user.
func (s *ThreadStore) Create(userID, title string) Thread {
	if title == "" {
		title = "New Chat"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	thread := &Thread{
		Id:          uuid.New(),
		UserId:      userID,
		Title:       title,
		Created:     now,
		LastUpdated: now,
	}
	s.threads[thread.Id] = thread
	return snapshot(thread)
}

// Get returns a snapshot of a thread.
// Returns ErrThreadNotFound if the thread does not exist or belongs to a
// different user.
func (s *ThreadStore) Get(threadID uuid.UUID, userID string) (Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	thread, ok := s.threads[threadID]
	if !ok || thread.UserId != userID {
		return Thread{}, ErrThreadNotFound
	}
	return snapshot(thread), nil
}

// List returns snapshots of the user's threads, most recently updated first.
func (s *ThreadStore) List(userID string) []Thread {
	s.mu.RLock()
	defer s.mu.RUnlock()

	threads := make([]Thread, 0)
	for _, thread := range s.threads {
		if thread.UserId == userID {
			threads = append(threads, snapshot(thread))
		}
	}
	sort.Slice(threads, func(i, j int) bool {
		if !threads[i].LastUpdated.Equal(threads[j].LastUpdated) {
			return threads[i].LastUpdated.After(threads[j].LastUpdated)
		}
		return threads[i].Id.String() < threads[j].Id.String()
	})
	return threads
}

// Delete removes a thread.
// Returns ErrThreadNotFound if the thread does not exist or belongs to a
// different user.
func (s *ThreadStore) Delete(threadID uuid.UUID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	thread, ok := s.threads[threadID]
	if !ok || thread.UserId != userID {
		return ErrThreadNotFound
	}
	delete(s.threads, threadID)
	return nil
}

// Append adds a message to a thread and bumps its LastUpdated time.
func (s *ThreadStore) Append(threadID uuid.UUID, userID string, message Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	thread, ok := s.threads[threadID]
	if !ok || thread.UserId != userID {
		return ErrThreadNotFound
	}
	if message.Timestamp.IsZero() {
		message.Timestamp = s.now().UTC()
	}
	thread.Messages = append(thread.Messages, message)
	thread.LastUpdated = s.now().UTC()
	return nil
}

func snapshot(thread *Thread) Thread {
	copied := *thread
	copied.Messages = make([]Message, len(thread.Messages))
	copy(copied.Messages, thread.Messages)
	return copied
}
