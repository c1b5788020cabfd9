package utils

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
)

// QuestRef encodes a quest ID as a short base58 reference for sharing on campus
func QuestRef(id uuid.UUID) string {
	return base58.Encode(id[:])
}

// ParseQuestID accepts either the canonical UUID form or a base58 reference
func ParseQuestID(raw string) (uuid.UUID, error) {
	if id, err := uuid.Parse(raw); err == nil {
		return id, nil
	}

	b, err := base58.Decode(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid quest id %q", raw)
	}

	id, err := uuid.FromBytes(b)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid quest id %q", raw)
	}
	return id, nil
}
