package chatstore

import (
	"fmt"

	"gorm.io/gorm"
)

const (
	defaultHistoryLimit = 1000
	searchResultLimit   = 100
)

// HistoryOptions narrows a history query. StartDate and EndDate are epoch
// milliseconds; zero means unbounded. Limit of zero falls back to the default.
type HistoryOptions struct {
	Limit     int   `json:"limit"`
	Offset    int   `json:"offset"`
	StartDate int64 `json:"startDate"`
	EndDate   int64 `json:"endDate"`
}

// Repository provides access to persisted chat messages.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new chat message repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Save appends a single chat message.
func (r *Repository) Save(msg *ChatMessage) error {
	if err := r.db.Create(msg).Error; err != nil {
		return fmt.Errorf("failed to save chat message: %w", err)
	}
	return nil
}

// History returns a stream's messages ordered by submission timestamp
// ascending, optionally bounded by a time range.
func (r *Repository) History(streamKey string, opts HistoryOptions) ([]*ChatMessage, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	query := r.db.Where("stream_key = ?", streamKey)
	if opts.StartDate > 0 {
		query = query.Where("timestamp >= ?", opts.StartDate)
	}
	if opts.EndDate > 0 {
		query = query.Where("timestamp <= ?", opts.EndDate)
	}

	var messages []*ChatMessage
	err := query.Order("timestamp ASC").Limit(limit).Offset(opts.Offset).Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query chat history: %w", err)
	}
	return messages, nil
}

// Stats returns message aggregates for one stream. A stream with no
// messages yields a zeroed result, not an error.
func (r *Repository) Stats(streamKey string) (*StreamChatStats, error) {
	var stats StreamChatStats
	err := r.db.Model(&ChatMessage{}).
		Select("COUNT(*) as total_messages, "+
			"COALESCE(MIN(timestamp), 0) as first_message, "+
			"COALESCE(MAX(timestamp), 0) as last_message, "+
			"COUNT(DISTINCT username) as unique_users").
		Where("stream_key = ?", streamKey).
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query chat stats: %w", err)
	}
	return &stats, nil
}

// StreamsWithChat returns a summary for every stream that has messages,
// most recently active first.
func (r *Repository) StreamsWithChat() ([]*StreamChatSummary, error) {
	var summaries []*StreamChatSummary
	err := r.db.Model(&ChatMessage{}).
		Select("stream_key, " +
			"COUNT(*) as message_count, " +
			"MIN(timestamp) as first_message, " +
			"MAX(timestamp) as last_message, " +
			"COUNT(DISTINCT username) as unique_users").
		Group("stream_key").
		Order("last_message DESC").
		Scan(&summaries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query streams with chat: %w", err)
	}
	return summaries, nil
}

// Search returns a stream's messages containing the keyword, newest first.
func (r *Repository) Search(streamKey, keyword string) ([]*ChatMessage, error) {
	var messages []*ChatMessage
	err := r.db.Where("stream_key = ? AND message LIKE ?", streamKey, "%"+keyword+"%").
		Order("timestamp DESC").
		Limit(searchResultLimit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search chat messages: %w", err)
	}
	return messages, nil
}

// DeleteOlderThan removes messages submitted before the cutoff (epoch
// milliseconds) and reports how many were removed.
func (r *Repository) DeleteOlderThan(cutoff int64) (int64, error) {
	result := r.db.Where("timestamp < ?", cutoff).Delete(&ChatMessage{})
	if err := result.Error; err != nil {
		return 0, fmt.Errorf("failed to delete old chat messages: %w", err)
	}
	return result.RowsAffected, nil
}
