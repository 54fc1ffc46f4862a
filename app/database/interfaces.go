package database

// PostRepository handles persistence of processed post ids.
type PostRepository interface {
	IsProcessed(postID int) (bool, error)
	MarkProcessed(post ProcessedPost) error

	LastPostID() (int, error)
	GetCount() (int, error)
	GetRecent(limit int) ([]ProcessedPost, error)

	Prune(keep int) (int64, error)
}
