package cache

import (
	"fmt"

	"github.com/google/uuid"
)

func JobKey(id uuid.UUID) string {
	return fmt.Sprintf("ocr:job:%s", id)
}

func RateLimitKey(clientKey string) string {
	return fmt.Sprintf("ratelimit:%s", clientKey)
}
