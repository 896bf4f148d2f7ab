package domain

// Comment is one persisted row of an article's discussion tree. There is no
// natural key in the source; rows are reconciled by (ArticleID, Content).
// ParentID is nil for root comments and must reference a comment of the
// same article otherwise.
type Comment struct {
	ID        int64   `db:"id"`
	ArticleID int64   `db:"article_id"`
	ParentID  *int64  `db:"parent_id"`
	Author    *string `db:"author"`
	CreatedAt *string `db:"created_at_text"`
	Content   *string `db:"content"`
	Reactions Reactions
}

// CommentNode is one node of the forest as extracted from the rendered
// page, before reconciliation. Reaction labels are carried raw and parsed
// separately so a malformed label cannot poison the node itself.
type CommentNode struct {
	Author    *string       `json:"author"`
	CreatedAt *string       `json:"createdAt"`
	Content   *string       `json:"content"`
	Reactions []string      `json:"reactions"`
	Children  []CommentNode `json:"children"`
}
