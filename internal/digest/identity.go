package digest

import "github.com/alexisyang718-beep/karpathy-rss-digest/internal/hash/sha256"

// Identity returns the deduplication key for an item: the hex SHA-256 of its
// link bytes. Two items with the same link always collide, which is the
// point.
func (it *Item) Identity() string {
	return IdentityOf(it.Link)
}

// IdentityOf hashes a raw link string.
func IdentityOf(link string) string {
	return sha256.HexString(link)
}
