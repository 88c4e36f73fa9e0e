// Package intent turns kiosk speech transcripts into discrete intents.
//
// A transcript is normalized (see Normalize) and matched against an ordered
// rule table for the current screen context. The first matching rule wins.
// Rules are data: the default table is embedded from rules.yaml and can be
// replaced with a file at startup.
package intent

import "fmt"

// Kind identifies what the user asked for.
type Kind string

// Intent kinds.
const (
	KindAddItem      Kind = "add_item"
	KindRemoveItem   Kind = "remove_item"
	KindSelectSize   Kind = "select_size"
	KindNavigate     Kind = "navigate"
	KindRecommend    Kind = "request_recommendation"
	KindCheckout     Kind = "checkout"
	KindClarify      Kind = "clarify"
	KindUnrecognized Kind = "unrecognized"
	KindChoose       Kind = "choose"
	KindDigits       Kind = "digits"
	KindClearCart    Kind = "clear_cart"
)

var kinds = map[Kind]bool{
	KindAddItem:      true,
	KindRemoveItem:   true,
	KindSelectSize:   true,
	KindNavigate:     true,
	KindRecommend:    true,
	KindCheckout:     true,
	KindClarify:      true,
	KindUnrecognized: true,
	KindChoose:       true,
	KindDigits:       true,
	KindClearCart:    true,
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool { return kinds[k] }

// Context is the screen whose rule table applies.
type Context string

// Screen contexts.
const (
	ContextHome           Context = "home"
	ContextMenuBrowsing   Context = "menu-browsing"
	ContextMenuOption     Context = "menu-option"
	ContextDrinkSelect    Context = "drink-select"
	ContextSideSelect     Context = "side-select"
	ContextRecommendation Context = "recommendation"
	ContextOrderConfirm   Context = "order-confirm"
	ContextPoints         Context = "points"
	ContextPhoneInput     Context = "phone-input"
	ContextPaymentMethod  Context = "payment-method"
)

// Contexts lists every screen context in flow order.
var Contexts = []Context{
	ContextHome,
	ContextMenuBrowsing,
	ContextMenuOption,
	ContextDrinkSelect,
	ContextSideSelect,
	ContextRecommendation,
	ContextOrderConfirm,
	ContextPoints,
	ContextPhoneInput,
	ContextPaymentMethod,
}

// Intent is the tagged result of matching one utterance.
//
// Ref names a catalog item for AddItem and RemoveItem; it is empty when the
// item has to be found in Text. Arg holds the size, navigation target,
// recommendation keyword, choice, digits or clarification prompt depending on
// Kind. Text is the normalized transcript.
type Intent struct {
	Kind    Kind    `json:"kind"`
	Ref     string  `json:"ref,omitempty"`
	Arg     string  `json:"arg,omitempty"`
	Text    string  `json:"text,omitempty"`
	Context Context `json:"context,omitempty"`
}

// String implements fmt.Stringer.
func (i Intent) String() string {
	switch {
	case i.Ref != "" && i.Arg != "":
		return fmt.Sprintf("%s(%s, %s)", i.Kind, i.Ref, i.Arg)
	case i.Ref != "":
		return fmt.Sprintf("%s(%s)", i.Kind, i.Ref)
	case i.Arg != "":
		return fmt.Sprintf("%s(%s)", i.Kind, i.Arg)
	}
	return string(i.Kind)
}

// AddItem returns an AddItem intent for ref.
func AddItem(ref string) Intent { return Intent{Kind: KindAddItem, Ref: ref} }

// RemoveItem returns a RemoveItem intent for ref.
func RemoveItem(ref string) Intent { return Intent{Kind: KindRemoveItem, Ref: ref} }

// SelectSize returns a SelectSize intent.
func SelectSize(size string) Intent { return Intent{Kind: KindSelectSize, Arg: size} }

// Navigate returns a Navigate intent.
func Navigate(target string) Intent { return Intent{Kind: KindNavigate, Arg: target} }

// Recommend returns a RequestRecommendation intent.
func Recommend(keyword string) Intent { return Intent{Kind: KindRecommend, Arg: keyword} }

// Checkout returns a Checkout intent.
func Checkout() Intent { return Intent{Kind: KindCheckout} }

// Clarify returns a Clarify intent carrying the prompt to speak.
func Clarify(prompt string) Intent { return Intent{Kind: KindClarify, Arg: prompt} }

// Unrecognized returns the fallback intent.
func Unrecognized() Intent { return Intent{Kind: KindUnrecognized} }

// Choose returns a Choose intent.
func Choose(value string) Intent { return Intent{Kind: KindChoose, Arg: value} }

// Digits returns a Digits intent.
func Digits(digits string) Intent { return Intent{Kind: KindDigits, Arg: digits} }

// ClearCart returns a ClearCart intent.
func ClearCart() Intent { return Intent{Kind: KindClearCart} }
