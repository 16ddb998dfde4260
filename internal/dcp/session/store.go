package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// sidecar is the on-disk shape of a persisted session. Kept separate
// from State so in-memory-only fields (ToolIDList, the tool cache
// itself) never hit disk — the engine treats memory as authoritative
// and disk as a best-effort backup.
type sidecar struct {
	PruneToolIDs      []string          `json:"pruneToolIds,omitempty"`
	PruneMessageIDs   []string          `json:"pruneMessageIds,omitempty"`
	CompressSummaries []CompressSummary `json:"compressSummaries,omitempty"`
	Stats             Stats             `json:"stats,omitempty"`
}

// Store persists one JSON sidecar file per session id under basePath.
type Store struct {
	basePath string
}

// NewStore creates a sidecar store rooted at basePath (typically
// something like ~/.config/dcp/sessions).
func NewStore(basePath string) *Store {
	return &Store{basePath: basePath}
}

func (s *Store) path(sessionID string) string {
	return filepath.Join(s.basePath, fmt.Sprintf("%s.json", sanitizeFilename(sessionID)))
}

// Save writes the session's persisted fields to disk. Best-effort:
// callers log-and-ignore errors rather than failing the turn over it.
func (s *Store) Save(st *State) error {
	if err := os.MkdirAll(s.basePath, 0755); err != nil {
		return fmt.Errorf("create sidecar dir: %w", err)
	}

	sc := sidecar{
		PruneToolIDs:      keys(st.PruneToolIDs),
		PruneMessageIDs:   keys(st.PruneMessageIDs),
		CompressSummaries: st.CompressSummaries,
		Stats:             st.Stats,
	}

	data, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sidecar: %w", err)
	}

	if err := os.WriteFile(s.path(st.SessionID), data, 0600); err != nil {
		return fmt.Errorf("write sidecar: %w", err)
	}
	return nil
}

// Load reads a session's persisted fields back into st, if a sidecar
// exists. A missing file is not an error: fresh sessions have none yet.
func (s *Store) Load(st *State) error {
	data, err := os.ReadFile(s.path(st.SessionID))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read sidecar: %w", err)
	}

	var sc sidecar
	if err := json.Unmarshal(data, &sc); err != nil {
		// Corrupt sidecar: treat as absent rather than failing session init.
		return nil
	}

	for _, id := range sc.PruneToolIDs {
		st.PruneToolIDs[normalizeID(id)] = struct{}{}
	}
	for _, id := range sc.PruneMessageIDs {
		st.PruneMessageIDs[id] = struct{}{}
	}
	st.CompressSummaries = sc.CompressSummaries
	st.Stats = sc.Stats
	return nil
}

// Delete removes a session's sidecar, used by `/dcp sweep` style resets.
func (s *Store) Delete(sessionID string) error {
	err := os.Remove(s.path(sessionID))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func keys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

func sanitizeFilename(id string) string {
	out := make([]rune, 0, len(id))
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "session"
	}
	return string(out)
}
