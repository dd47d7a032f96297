package profile

import (
	"fmt"
	"math/rand"
	"sync"
)

// Profile is a player's display identity, decoupled from any one connection.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Color    string `json:"color"`
}

// Directory maps session ids to display profiles. Profiles are created
// lazily on first contact and evicted on disconnect; a reconnecting client
// gets a fresh identity.
type Directory struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

func NewDirectory() *Directory {
	return &Directory{profiles: make(map[string]*Profile)}
}

// Ensure returns the profile for id, creating one on first contact.
func (d *Directory) Ensure(id string) *Profile {
	d.mu.Lock()
	defer d.mu.Unlock()
	if existing, ok := d.profiles[id]; ok {
		return existing
	}
	created := &Profile{
		ID:       id,
		Username: randomUsername(),
		Avatar:   randomAvatar(),
		Color:    randomColor(),
	}
	d.profiles[id] = created
	return created
}

func (d *Directory) Get(id string) (*Profile, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.profiles[id]
	return p, ok
}

func (d *Directory) Evict(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.profiles, id)
}

var (
	adjectives = []string{"Happy", "Clever", "Brave", "Gentle", "Wise", "Swift", "Calm", "Bright", "Wild", "Kind"}
	nouns      = []string{"Fox", "Bear", "Eagle", "Wolf", "Owl", "Lion", "Tiger", "Hawk", "Dove", "Hare"}
	colors     = []string{
		"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FFEEAD",
		"#D4A5A5", "#9B59B6", "#3498DB", "#E74C3C", "#2ECC71",
	}
	avatarStyles = []string{"adventurer", "avataaars", "bottts", "fun-emoji", "micah"}
)

func randomUsername() string {
	return fmt.Sprintf("%s%s%d",
		adjectives[rand.Intn(len(adjectives))],
		nouns[rand.Intn(len(nouns))],
		rand.Intn(1000))
}

func randomColor() string {
	return colors[rand.Intn(len(colors))]
}

func randomAvatar() string {
	style := avatarStyles[rand.Intn(len(avatarStyles))]
	return fmt.Sprintf("https://api.dicebear.com/7.x/%s/svg?seed=%06x", style, rand.Intn(1<<24))
}
