package journal

import (
	"time"
)

// Mood is the optional emotional annotation of an entry.
type Mood string

const (
	MoodGreat    Mood = "great"
	MoodGood     Mood = "good"
	MoodOkay     Mood = "okay"
	MoodBad      Mood = "bad"
	MoodTerrible Mood = "terrible"
)

// MoodInfo describes a mood for display.
type MoodInfo struct {
	Mood        Mood   `json:"mood"`
	Label       string `json:"label"`
	Emoji       string `json:"emoji"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

var moodCatalogue = []MoodInfo{
	{Mood: MoodGreat, Label: "Great", Emoji: "😊", Color: "#10B981", Description: "Feeling fantastic!"},
	{Mood: MoodGood, Label: "Good", Emoji: "🙂", Color: "#14B8A6", Description: "Feeling positive"},
	{Mood: MoodOkay, Label: "Okay", Emoji: "😐", Color: "#F59E0B", Description: "Feeling neutral"},
	{Mood: MoodBad, Label: "Bad", Emoji: "😔", Color: "#F97316", Description: "Not feeling great"},
	{Mood: MoodTerrible, Label: "Terrible", Emoji: "😢", Color: "#EF4444", Description: "Feeling really down"},
}

// Moods returns the mood catalogue from best to worst.
func Moods() []MoodInfo {
	out := make([]MoodInfo, len(moodCatalogue))
	copy(out, moodCatalogue)
	return out
}

// Valid reports whether m is one of the known moods. The empty mood is not valid.
func (m Mood) Valid() bool {
	for _, info := range moodCatalogue {
		if info.Mood == m {
			return true
		}
	}
	return false
}

// ParseMood accepts "" (no mood) or one of the known mood names.
func ParseMood(s string) (Mood, error) {
	m := Mood(s)
	if s == "" || m.Valid() {
		return m, nil
	}
	return "", invalidMood(s)
}

// SyncStatus tracks whether a local change has been pushed anywhere.
// Every local mutation resets it to SyncPending.
type SyncStatus string

const (
	SyncPending  SyncStatus = "pending"
	SyncSynced   SyncStatus = "synced"
	SyncConflict SyncStatus = "conflict"
)

// Entry represents a single journal record.
type Entry struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Mood        Mood       `json:"mood,omitempty"`
	CategoryID  string     `json:"category_id,omitempty"`
	Category    *Category  `json:"category,omitempty"`
	Tags        []Tag      `json:"tags"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	SyncStatus  SyncStatus `json:"sync_status"`
	SyncVersion int64      `json:"sync_version"`
}

// Deleted reports whether the entry is in the trash.
func (e Entry) Deleted() bool {
	return e.DeletedAt != nil
}

// Tag is a case-insensitively unique label. Names are stored trimmed and lowercased.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// Category is an ordered grouping an entry may belong to.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon,omitempty"`
	Color     string    `json:"color"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

// NewEntry is the input to EntryRepository.Create. A blank Title is derived from Content.
type NewEntry struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Mood       Mood     `json:"mood,omitempty"`
	CategoryID string   `json:"category_id,omitempty"`
	TagIDs     []string `json:"tag_ids,omitempty"`
}

// EntryPatch lists the fields to change; nil fields are left alone.
//
// An empty Mood or CategoryID clears the value. TagIDs, when set, replaces
// the whole tag set, so a pointer to an empty slice removes every tag.
type EntryPatch struct {
	Title      *string   `json:"title,omitempty"`
	Content    *string   `json:"content,omitempty"`
	Mood       *Mood     `json:"mood,omitempty"`
	CategoryID *string   `json:"category_id,omitempty"`
	TagIDs     *[]string `json:"tag_ids,omitempty"`
}

// NewTag is the input to TagRepository.Create.
type NewTag struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// TagPatch lists the tag fields to change.
type TagPatch struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}

// NewCategory is the input to CategoryRepository.Create. A nil SortOrder appends the category.
type NewCategory struct {
	Name      string `json:"name"`
	Icon      string `json:"icon,omitempty"`
	Color     string `json:"color,omitempty"`
	SortOrder *int   `json:"sort_order,omitempty"`
}

// CategoryPatch lists the category fields to change. An empty Icon clears it.
type CategoryPatch struct {
	Name      *string `json:"name,omitempty"`
	Icon      *string `json:"icon,omitempty"`
	Color     *string `json:"color,omitempty"`
	SortOrder *int    `json:"sort_order,omitempty"`
}

// SearchResult is the lightweight record returned by SearchWithSnippets.
type SearchResult struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	Snippet   string    `json:"snippet"`
	Tags      []Tag     `json:"tags"`
	Mood      Mood      `json:"mood,omitempty"`
}

// SearchFilters narrows SearchWithFilters. Dimensions are ANDed together;
// TagIDs matches entries carrying at least one of the listed tags.
type SearchFilters struct {
	TagIDs    []string   `json:"tag_ids,omitempty"`
	Mood      Mood       `json:"mood,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}
