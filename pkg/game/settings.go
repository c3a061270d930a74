package game

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultWords is the candidate list used when none is configured.
var DefaultWords = []string{"apple", "banana", "grape", "orange", "mango", "lemon"}

// Settings are the rules of a session.
type Settings struct {
	Words       []string      `yaml:"words"`
	Rounds      int           `yaml:"rounds"`
	PromptLimit int           `yaml:"prompt_limit"`
	IntroDelay  time.Duration `yaml:"intro_delay"`
	// Seed fixes the word choice; zero seeds from the clock.
	Seed uint64 `yaml:"seed"`
	// RevealWord prints the target before play starts.
	RevealWord bool `yaml:"reveal_word"`
}

// DefaultSettings returns three rounds of up to five prompts each.
func DefaultSettings() Settings {
	return Settings{
		Words:       append([]string(nil), DefaultWords...),
		Rounds:      3,
		PromptLimit: 5,
		IntroDelay:  3 * time.Second,
	}
}

// Validate checks that a game can be played with these settings.
func (s Settings) Validate() error {
	if len(s.Words) == 0 {
		return errors.New("at least one word is required")
	}
	for i, w := range s.Words {
		if strings.TrimSpace(w) == "" {
			return fmt.Errorf("word %d is empty", i)
		}
	}
	if s.Rounds <= 0 {
		return errors.New("rounds must be positive")
	}
	if s.PromptLimit <= 0 {
		return errors.New("prompt_limit must be positive")
	}
	if s.IntroDelay < 0 {
		return errors.New("intro_delay must not be negative")
	}
	return nil
}
