// Package model defines the core memory data types shared by all three
// storage layers.
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// MemoryType classifies what kind of knowledge a memory holds.
type MemoryType string

const (
	TypeLearning    MemoryType = "learning"
	TypeDecision    MemoryType = "decision"
	TypeInsight     MemoryType = "insight"
	TypeEvent       MemoryType = "event"
	TypeInteraction MemoryType = "interaction"
	TypeMeta        MemoryType = "meta"
)

var memoryTypes = map[MemoryType]bool{
	TypeLearning:    true,
	TypeDecision:    true,
	TypeInsight:     true,
	TypeEvent:       true,
	TypeInteraction: true,
	TypeMeta:        true,
}

// ParseMemoryType validates a memory type string at the API boundary.
func ParseMemoryType(s string) (MemoryType, error) {
	t := MemoryType(strings.ToLower(strings.TrimSpace(s)))
	if !memoryTypes[t] {
		return "", fmt.Errorf("invalid memory type %q (valid: learning, decision, insight, event, interaction, meta)", s)
	}
	return t, nil
}

// Source classifies where a memory came from.
type Source string

const (
	SourceUser     Source = "user"
	SourceAgent    Source = "agent"
	SourceSystem   Source = "system"
	SourceExternal Source = "external"
	SourceInferred Source = "inferred"
)

var sources = map[Source]bool{
	SourceUser:     true,
	SourceAgent:    true,
	SourceSystem:   true,
	SourceExternal: true,
	SourceInferred: true,
}

// ParseSource validates a source string. Empty means SourceAgent.
func ParseSource(s string) (Source, error) {
	if strings.TrimSpace(s) == "" {
		return SourceAgent, nil
	}
	src := Source(strings.ToLower(strings.TrimSpace(s)))
	if !sources[src] {
		return "", fmt.Errorf("invalid source %q (valid: user, agent, system, external, inferred)", s)
	}
	return src, nil
}

// ReferenceType classifies a directed edge between two memories.
type ReferenceType string

const (
	RefRelated     ReferenceType = "related"
	RefSupports    ReferenceType = "supports"
	RefContradicts ReferenceType = "contradicts"
	RefSupersedes  ReferenceType = "supersedes"
	RefDerivedFrom ReferenceType = "derived_from"
	RefMeta        ReferenceType = "meta"
)

var referenceTypes = map[ReferenceType]bool{
	RefRelated:     true,
	RefSupports:    true,
	RefContradicts: true,
	RefSupersedes:  true,
	RefDerivedFrom: true,
	RefMeta:        true,
}

// ParseReferenceType validates a reference type string.
func ParseReferenceType(s string) (ReferenceType, error) {
	t := ReferenceType(strings.ToLower(strings.TrimSpace(s)))
	if !referenceTypes[t] {
		return "", fmt.Errorf("invalid reference type %q (valid: related, supports, contradicts, supersedes, derived_from, meta)", s)
	}
	return t, nil
}

// Importance bounds for every memory.
const (
	MinImportance = 1
	MaxImportance = 10
)

// Entities holds the optional extracted entity summary of a memory.
type Entities struct {
	People        []string `json:"people,omitempty"`
	Projects      []string `json:"projects,omitempty"`
	Skills        []string `json:"skills,omitempty"`
	Organizations []string `json:"organizations,omitempty"`
}

// Memory is a stored memory record. Content is immutable after capture;
// only importance, access tracking, and the embedding link mutate later.
type Memory struct {
	ID           string     `json:"id"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Content      string     `json:"content"`
	ContentHash  string     `json:"content_hash"`
	Type         MemoryType `json:"type"`
	Importance   int        `json:"importance"`
	AgentID      string     `json:"agent_id"`
	Context      string     `json:"context,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	Source       Source     `json:"source"`
	Entities     *Entities  `json:"entities,omitempty"`
	EmbeddingID  string     `json:"embedding_id,omitempty"`
	AccessCount  int        `json:"access_count"`
	LastAccessed *time.Time `json:"last_accessed,omitempty"`
}

// Embedding is the persisted vector for one memory (1:1).
type Embedding struct {
	ID        string    `json:"id"`
	MemoryID  string    `json:"memory_id"`
	Vector    []float32 `json:"vector"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
}

// Reference is a directed, typed, weighted edge between two memories.
// The ordered (SourceID, TargetID) pair is the primary key; re-adding
// an edge replaces it.
type Reference struct {
	SourceID  string        `json:"source_id"`
	TargetID  string        `json:"target_id"`
	Type      ReferenceType `json:"type"`
	Strength  float64       `json:"strength"`
	CreatedAt time.Time     `json:"created_at"`
}

// ContentHash derives the dedup key for a memory from its normalized
// type, owning agent, and content.
func ContentHash(t MemoryType, agentID, content string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(content), " "))
	sum := sha256.Sum256([]byte(string(t) + "|" + agentID + "|" + normalized))
	return hex.EncodeToString(sum[:])
}

// NormalizeTag lowercases a tag and reduces it to alphanumerics and
// hyphens. Returns "" if nothing survives.
func NormalizeTag(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == ' ' || r == '_':
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

// NormalizeTags normalizes a tag list, dropping empties and duplicates.
func NormalizeTags(tags []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, t := range tags {
		n := NormalizeTag(t)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
