package service

import (
	"fmt"
	"html"
	"strings"
	"time"

	"consultlink.id/forum/internal/entity"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
	log "github.com/sirupsen/logrus"
)

const (
	threadsIndex   = "threads"
	signingKeyName = "ForumSearchSigner"
)

type SearchService interface {
	IndexThread(thread *entity.Thread) error
	DeleteThread(id string) error
	GenerateSearchToken() (string, error)
}

type meiliSearchService struct {
	client        meilisearch.ServiceManager
	signingKeyUID string
	signingKey    string
	sanitizer     *bluemonday.Policy
}

func NewMeiliSearchService(client meilisearch.ServiceManager) SearchService {
	s := &meiliSearchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndexes()
	s.initSigningKey()
	return s
}

func (s *meiliSearchService) initSigningKey() {
	resp, err := s.client.GetKeys(&meilisearch.KeysQuery{Limit: 20})
	if err != nil {
		log.WithError(err).Warn("failed to list meilisearch keys")
		return
	}

	for _, key := range resp.Results {
		if key.Name == signingKeyName {
			s.signingKeyUID = key.UID
			s.signingKey = key.Key
			return
		}
	}

	key, err := s.client.CreateKey(&meilisearch.Key{
		Description: "Key to sign forum search tokens",
		Name:        signingKeyName,
		Actions:     []string{"search"},
		Indexes:     []string{threadsIndex},
		ExpiresAt:   time.Now().AddDate(100, 0, 0),
	})
	if err != nil {
		log.WithError(err).Warn("failed to create meilisearch signing key")
		return
	}

	s.signingKeyUID = key.UID
	s.signingKey = key.Key
	log.Info("created meilisearch signing key")
}

func (s *meiliSearchService) initIndexes() {
	filterable := []any{"tags", "status", "is_pinned"}
	if _, err := s.client.Index(threadsIndex).UpdateFilterableAttributes(&filterable); err != nil {
		log.WithError(err).Warn("failed to update threads filterable attributes")
	}

	sortable := []string{"created_at", "upvotes", "net_votes"}
	if _, err := s.client.Index(threadsIndex).UpdateSortableAttributes(&sortable); err != nil {
		log.WithError(err).Warn("failed to update threads sortable attributes")
	}
}

type meiliThreadDoc struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags"`
	Status    string   `json:"status"`
	IsPinned  bool     `json:"is_pinned"`
	Upvotes   int      `json:"upvotes"`
	NetVotes  int      `json:"net_votes"`
	Author    string   `json:"author"`
	CreatedAt int64    `json:"created_at"`
}

// cleanContentForIndex strips markup so only searchable text reaches the index.
func (s *meiliSearchService) cleanContentForIndex(content string) string {
	content = strings.ReplaceAll(content, "</p>", " ")
	content = strings.ReplaceAll(content, "<br>", " ")
	content = strings.ReplaceAll(content, "</div>", " ")

	cleanText := html.UnescapeString(s.sanitizer.Sanitize(content))
	return strings.Join(strings.Fields(cleanText), " ")
}

func (s *meiliSearchService) IndexThread(thread *entity.Thread) error {
	if thread.IsDeleted {
		return s.DeleteThread(thread.ID.String())
	}

	doc := meiliThreadDoc{
		ID:        thread.ID.String(),
		Title:     s.cleanContentForIndex(thread.Title),
		Content:   s.cleanContentForIndex(thread.Content),
		Tags:      thread.TagNames(),
		Status:    string(thread.Status),
		IsPinned:  thread.IsPinned,
		Upvotes:   thread.Votes.Upvotes,
		NetVotes:  thread.Votes.Net(),
		Author:    thread.Author.Username,
		CreatedAt: thread.CreatedAt.Unix(),
	}

	task, err := s.client.Index(threadsIndex).AddDocuments([]meiliThreadDoc{doc}, strPtr("id"))
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"thread_id": thread.ID, "task_uid": task.TaskUID}).Debug("thread indexed")
	return nil
}

func (s *meiliSearchService) DeleteThread(id string) error {
	_, err := s.client.Index(threadsIndex).DeleteDocument(id)
	return err
}

// GenerateSearchToken returns a 24h tenant token scoped to the threads index.
func (s *meiliSearchService) GenerateSearchToken() (string, error) {
	if s.signingKeyUID == "" || s.signingKey == "" {
		return "", fmt.Errorf("signing key not initialized")
	}

	searchRules := map[string]any{
		threadsIndex: map[string]any{},
	}

	return s.client.GenerateTenantToken(s.signingKeyUID, searchRules, &meilisearch.TenantTokenOptions{
		APIKey:    s.signingKey,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	})
}

func strPtr(s string) *string {
	return &s
}
