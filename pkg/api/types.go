package api

// UploadedImage is a single source image submitted for generation.
// Data carries the raw image bytes encoded as standard base64.
type UploadedImage struct {
	Name string `json:"name" validate:"required"`
	MIME string `json:"mimeType" validate:"required"`
	Data string `json:"data" validate:"required,base64"`
}

// GenerateRequest represents the request to generate headshots
type GenerateRequest struct {
	Images      []UploadedImage `json:"images" validate:"required,min=1,max=5,dive"`
	StylePrompt string          `json:"stylePrompt"`
}

// GenerateResponse represents a completed generation
type GenerateResponse struct {
	ID        string   `json:"id"`
	Images    []string `json:"images"`
	Credits   int      `json:"credits"`
	CreatedAt string   `json:"createdAt"`
}

// ProfileResponse represents the caller's profile
type ProfileResponse struct {
	IdentityID string `json:"identityId"`
	Email      string `json:"email"`
	Credits    int    `json:"credits"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
}

// GalleryResponse represents the deduplicated gallery, newest first
type GalleryResponse struct {
	Images []string `json:"images"`
}

// PurchaseRequest represents a credit pack purchase
type PurchaseRequest struct {
	PackID string `json:"packId" validate:"required"`
}

// PurchaseResponse represents the balance after a purchase
type PurchaseResponse struct {
	PackID  string `json:"packId"`
	Added   int    `json:"added"`
	Credits int    `json:"credits"`
}

// Pack represents a purchasable credit pack
type Pack struct {
	ID       string `json:"id"`
	Credits  int    `json:"credits"`
	PriceUSD int    `json:"priceUsd"`
}

// PacksResponse lists the purchasable credit packs
type PacksResponse struct {
	Packs []Pack `json:"packs"`
}

// SuggestStylesRequest represents a style suggestion request
type SuggestStylesRequest struct {
	Profession string `json:"profession" validate:"required"`
}

// StyleSuggestion is one suggested headshot style
type StyleSuggestion struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SuggestStylesResponse represents the suggested styles
type SuggestStylesResponse struct {
	Suggestions []StyleSuggestion `json:"suggestions"`
}

// DraftBioRequest represents a bio drafting request
type DraftBioRequest struct {
	Name       string `json:"name" validate:"required"`
	Profession string `json:"profession" validate:"required"`
	Highlights string `json:"highlights"`
}

// DraftBioResponse represents the drafted bio
type DraftBioResponse struct {
	Bio string `json:"bio"`
}
