package domain

import "time"

// Stats accumulates created/updated counters for one synchronization call.
// Each call returns its own value; the orchestrator folds them together, so
// no counter is ever shared between concurrent tasks.
type Stats struct {
	ArticlesCreated int
	ArticlesUpdated int
	ArticlesSkipped int
	AuthorsCreated  int
	AuthorLinks     int
	CommentsCreated int
	CommentsUpdated int
	Published       int
	Errors          int
	Anomalies       int
	Duration        time.Duration
}

// Merge folds other into s.
func (s *Stats) Merge(other Stats) {
	s.ArticlesCreated += other.ArticlesCreated
	s.ArticlesUpdated += other.ArticlesUpdated
	s.ArticlesSkipped += other.ArticlesSkipped
	s.AuthorsCreated += other.AuthorsCreated
	s.AuthorLinks += other.AuthorLinks
	s.CommentsCreated += other.CommentsCreated
	s.CommentsUpdated += other.CommentsUpdated
	s.Published += other.Published
	s.Errors += other.Errors
	s.Anomalies += other.Anomalies
}
