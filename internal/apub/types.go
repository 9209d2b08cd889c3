// Package apub holds the ActivityStreams wire shapes the federation engine
// reads and writes. These are plain JSON structs; the vocabulary is small
// enough that no schema layer is warranted.
package apub

// Context values attached to every outbound document.
var DocumentContext = []string{
	"https://www.w3.org/ns/activitystreams",
	"https://w3id.org/security/v1",
}

// PublicAudience is the well-known collection addressing every reachable actor.
const PublicAudience = "https://www.w3.org/ns/activitystreams#Public"

// Actor is a federated identity document.
type Actor struct {
	Context           any          `json:"@context,omitempty"`
	ID                string       `json:"id"`
	Type              string       `json:"type"`
	PreferredUsername string       `json:"preferredUsername,omitempty"`
	Name              string       `json:"name,omitempty"`
	Summary           string       `json:"summary,omitempty"`
	Inbox             string       `json:"inbox,omitempty"`
	Outbox            string       `json:"outbox,omitempty"`
	Followers         string       `json:"followers,omitempty"`
	Following         string       `json:"following,omitempty"`
	Endpoints         *Endpoints   `json:"endpoints,omitempty"`
	PublicKey         *PublicKey   `json:"publicKey,omitempty"`
	Icon              *Image       `json:"icon,omitempty"`
	Attachment        []Attachment `json:"attachment,omitempty"`
}

// Endpoints advertises the server-wide shared inbox.
type Endpoints struct {
	SharedInbox string `json:"sharedInbox,omitempty"`
}

// PublicKey carries the PEM-encoded public half of the actor's keypair.
type PublicKey struct {
	ID           string `json:"id"`
	Owner        string `json:"owner"`
	PublicKeyPem string `json:"publicKeyPem"`
}

// Image is an avatar or header reference.
type Image struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// Attachment is a profile property row, one per published link.
type Attachment struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Tag is a note annotation; Mention tags carry the mentioned actor in Href.
type Tag struct {
	Type string `json:"type"`
	Href string `json:"href,omitempty"`
	Name string `json:"name,omitempty"`
}

// BadgeIssuerRef identifies the party asserting a badge.
type BadgeIssuerRef struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	URL   string `json:"url,omitempty"`
	Image string `json:"image,omitempty"`
}

// BadgeAssertion is the open-badge payload a note may embed.
type BadgeAssertion struct {
	ID          string          `json:"id,omitempty"`
	Name        string          `json:"name,omitempty"`
	Description string          `json:"description,omitempty"`
	Image       string          `json:"image,omitempty"`
	Criteria    string          `json:"criteria,omitempty"`
	IssuedOn    string          `json:"issuedOn,omitempty"`
	Issuer      *BadgeIssuerRef `json:"issuer,omitempty"`
}

// Note is the structured object carried by a Create activity.
type Note struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"`
	AttributedTo string          `json:"attributedTo,omitempty"`
	Content      string          `json:"content,omitempty"`
	Published    string          `json:"published,omitempty"`
	To           []string        `json:"to,omitempty"`
	Cc           []string        `json:"cc,omitempty"`
	Tag          []Tag           `json:"tag,omitempty"`
	Badge        *BadgeAssertion `json:"badge,omitempty"`
}

// FollowObject is the nested object inside an Undo of a Follow.
type FollowObject struct {
	ID     string `json:"id,omitempty"`
	Type   string `json:"type"`
	Actor  string `json:"actor,omitempty"`
	Object string `json:"object,omitempty"`
}

// Document is an outbound activity (Accept, Follow, Undo, Announce).
type Document struct {
	Context any      `json:"@context"`
	ID      string   `json:"id"`
	Type    string   `json:"type"`
	Actor   string   `json:"actor"`
	Object  any      `json:"object,omitempty"`
	To      []string `json:"to,omitempty"`
}

// WebFinger is the discovery document for acct: resources.
type WebFinger struct {
	Subject string          `json:"subject"`
	Links   []WebFingerLink `json:"links"`
}

// WebFingerLink points a webfinger subject at its actor document.
type WebFingerLink struct {
	Rel  string `json:"rel"`
	Type string `json:"type,omitempty"`
	Href string `json:"href,omitempty"`
}

// OrderedCollection is the unpaged summary served for followers.
type OrderedCollection struct {
	Context    any    `json:"@context"`
	ID         string `json:"id"`
	Type       string `json:"type"`
	TotalItems int64  `json:"totalItems"`
}
