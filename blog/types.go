package blog

// EntryOverview is the list representation of an entry.
type EntryOverview struct {
	ID             int64  `json:"id"`
	Author         string `json:"author"`
	Comments       int    `json:"comments"`
	ContentPreview string `json:"contentPreview"`
	CreatedAt      string `json:"createdAt"`
	CreatedByMe    bool   `json:"createdByMe"`
	HeaderImageURL string `json:"headerImageUrl,omitempty"` // optional
	LikedByMe      bool   `json:"likedByMe"`
	Likes          int    `json:"likes"`
	Title          string `json:"title"`
	UpdatedAt      string `json:"updatedAt"`
}

// PagedEntries is one page of the entries listing.
type PagedEntries struct {
	Data       []EntryOverview `json:"data"`
	PageIndex  int             `json:"pageIndex"`
	PageSize   int             `json:"pageSize"`
	TotalCount int             `json:"totalCount"`
}

// Comment is a reader comment attached to an entry.
type Comment struct {
	ID        int64  `json:"id"`
	Author    string `json:"author"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

// Entry is the detail representation of an entry.
type Entry struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	Author         string    `json:"author"`
	CreatedAt      string    `json:"createdAt"`
	UpdatedAt      string    `json:"updatedAt"`
	CreatedByMe    bool      `json:"createdByMe"`
	HeaderImageURL string    `json:"headerImageUrl,omitempty"`
	LikedByMe      bool      `json:"likedByMe"`
	Likes          int       `json:"likes"`
	Comments       []Comment `json:"comments,omitempty"`
}

// NewEntry is the payload for creating an entry.
type NewEntry struct {
	Title          string `json:"title" validate:"required,max=200"`
	Content        string `json:"content" validate:"required"`
	HeaderImageURL string `json:"headerImageUrl,omitempty" validate:"omitempty,url"`
}

// EmptyPage is returned when the listing cannot be loaded and nothing is cached.
func EmptyPage() PagedEntries {
	return PagedEntries{Data: []EntryOverview{}}
}
