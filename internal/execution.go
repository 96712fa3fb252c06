package internal

import (
	"github.com/google/uuid"
)

func GenerateId() string {
	return uuid.Must(uuid.NewRandom()).String()
}
