package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/google/uuid"
)

const (
	OpenPostingsPattern = "postings:open:*"
	SkillsCatalogKey    = "skills:catalog"
)

type openPostingsKeyInput struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func OpenPostingsCacheKey(limit, offset int) string {
	b, _ := json.Marshal(openPostingsKeyInput{Limit: limit, Offset: offset})
	sum := sha256.Sum256(b)
	return "postings:open:" + hex.EncodeToString(sum[:])
}

func RatingLockKey(vaProfileID uuid.UUID) string {
	return "profiles:va:rating:lock:" + vaProfileID.String()
}
