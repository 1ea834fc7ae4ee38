package services

// ===============================
// USER REQUESTS
// ===============================

// CreateUserRequest registers a new member
type CreateUserRequest struct {
	Username   string  `json:"username" validate:"required,min=3,max=50,alphanum"`
	Email      string  `json:"email" validate:"required,email,max=255"`
	Password   string  `json:"password" validate:"required,min=8,max=72"`
	University *string `json:"university,omitempty" validate:"omitempty,max=255"`
	Major      *string `json:"major,omitempty" validate:"omitempty,max=255"`
	Year       *int    `json:"year,omitempty" validate:"omitempty,min=1,max=10"`
}

// UpdateProfileRequest changes profile fields; nil fields are left as they are
type UpdateProfileRequest struct {
	UserID     int64   `json:"-" validate:"required,gt=0"`
	AvatarURL  *string `json:"avatar_url,omitempty" validate:"omitempty,url,max=500"`
	Bio        *string `json:"bio,omitempty" validate:"omitempty,max=1000"`
	University *string `json:"university,omitempty" validate:"omitempty,max=255"`
	Major      *string `json:"major,omitempty" validate:"omitempty,max=255"`
	Year       *int    `json:"year,omitempty" validate:"omitempty,min=1,max=10"`
}

// ===============================
// DOCUMENT REQUESTS
// ===============================

// CreateDocumentRequest records an uploaded document's metadata
type CreateDocumentRequest struct {
	UserID      int64    `json:"-" validate:"required,gt=0"`
	Title       string   `json:"title" validate:"required,min=3,max=255"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=5000"`
	Subject     string   `json:"subject" validate:"required,max=100"`
	Tags        []string `json:"tags,omitempty" validate:"omitempty,max=20,dive,required,max=50"`
	Course      *string  `json:"course,omitempty" validate:"omitempty,max=100"`
	Professor   *string  `json:"professor,omitempty" validate:"omitempty,max=100"`
	Semester    *string  `json:"semester,omitempty" validate:"omitempty,max=50"`
	FileType    string   `json:"file_type" validate:"required,filetype"`
	FileName    string   `json:"file_name" validate:"required,max=255"`
	FileSize    int64    `json:"file_size" validate:"gte=0"`
	FilePath    string   `json:"file_path" validate:"required,max=500"`
	IsPublic    *bool    `json:"is_public,omitempty"`
}

// UpdateDocumentRequest edits document metadata; nil fields are left as they are
type UpdateDocumentRequest struct {
	DocumentID  int64    `json:"-" validate:"required,gt=0"`
	UserID      int64    `json:"-" validate:"required,gt=0"`
	Title       *string  `json:"title,omitempty" validate:"omitempty,min=3,max=255"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=5000"`
	Subject     *string  `json:"subject,omitempty" validate:"omitempty,min=1,max=100"`
	Tags        []string `json:"tags,omitempty" validate:"omitempty,max=20,dive,required,max=50"`
	Course      *string  `json:"course,omitempty" validate:"omitempty,max=100"`
	Professor   *string  `json:"professor,omitempty" validate:"omitempty,max=100"`
	Semester    *string  `json:"semester,omitempty" validate:"omitempty,max=50"`
	IsPublic    *bool    `json:"is_public,omitempty"`
}

// ===============================
// ENGAGEMENT REQUESTS
// ===============================

// SubmitRatingRequest creates or replaces a user's rating of a document
type SubmitRatingRequest struct {
	DocumentID int64   `json:"-" validate:"required,gt=0"`
	UserID     int64   `json:"-" validate:"required,gt=0"`
	Value      int     `json:"value" validate:"required,min=1,max=5"`
	Review     *string `json:"review,omitempty" validate:"omitempty,max=2000"`
}

// CreateCommentRequest posts a root comment or a reply
type CreateCommentRequest struct {
	DocumentID int64  `json:"-" validate:"required,gt=0"`
	UserID     int64  `json:"-" validate:"required,gt=0"`
	Content    string `json:"content" validate:"required,max=5000"`
	ParentID   *int64 `json:"parent_id,omitempty" validate:"omitempty,gt=0"`
}

// ===============================
// COLLECTION REQUESTS
// ===============================

// CreateCollectionRequest creates a named document grouping
type CreateCollectionRequest struct {
	UserID      int64   `json:"-" validate:"required,gt=0"`
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	IsPublic    bool    `json:"is_public"`
}

// UpdateCollectionRequest edits a collection; nil fields are left as they are
type UpdateCollectionRequest struct {
	CollectionID int64   `json:"-" validate:"required,gt=0"`
	UserID       int64   `json:"-" validate:"required,gt=0"`
	Name         *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	IsPublic     *bool   `json:"is_public,omitempty"`
}
