package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Membership answers whether a user belongs to an economy. It stands in for
// the external authorization layer.
type Membership interface {
	IsMember(economyID, userID string) bool
}

// AllowAll treats every authenticated user as a member of every economy.
type AllowAll struct{}

// IsMember reports true for any non-empty user.
func (AllowAll) IsMember(_, userID string) bool {
	return userID != ""
}

// StaticMembership is a fixed economy -> members table.
type StaticMembership struct {
	mu        sync.RWMutex
	economies map[string]map[string]bool
}

// membersFile is the YAML layout:
//
//	economies:
//	  econ-1: [alice, bob]
type membersFile struct {
	Economies map[string][]string `yaml:"economies"`
}

// NewStaticMembership builds a table from economy -> user lists.
func NewStaticMembership(economies map[string][]string) *StaticMembership {
	m := &StaticMembership{economies: make(map[string]map[string]bool, len(economies))}
	for econ, users := range economies {
		set := make(map[string]bool, len(users))
		for _, u := range users {
			set[u] = true
		}
		m.economies[econ] = set
	}
	return m
}

// IsMember reports whether userID is listed for economyID.
func (m *StaticMembership) IsMember(economyID, userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.economies[economyID][userID]
}

// Add lists userID as a member of economyID.
// Used when an economy is created through the API.
func (m *StaticMembership) Add(economyID, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.economies[economyID] == nil {
		m.economies[economyID] = make(map[string]bool)
	}
	m.economies[economyID][userID] = true
}

// LoadMembership reads the membership file at path. An empty path yields
// AllowAll.
func LoadMembership(path string) (Membership, error) {
	if path == "" {
		return AllowAll{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read members file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f membersFile
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse members file %s: %w", path, err)
	}
	return NewStaticMembership(f.Economies), nil
}
