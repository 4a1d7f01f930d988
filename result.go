package sidewing

import (
	"github.com/NasoohOlabi/stego-side-wing/lzdict"
	"github.com/NasoohOlabi/stego-side-wing/thread"
)

// Warning texts are part of the output contract; downstream tooling
// matches on them.
const (
	warnCompressionFallback = "Dictionary compression inefficient; standard encoding used"
	warnCommentBitsPadded   = "Comment selector exhausted payload bits; field padded with zeros"
	warnAngleBitsPadded     = "Angle selector exhausted payload bits; fields padded with zeros"
	warnAngleTruncated      = "Angle selector finished with payload bits left over"
	warnFinderUnavailable   = "Quote finder unavailable; snippet omitted"
	warnFinderBadResponse   = "Quote finder returned a malformed response; snippet omitted"
	warnFinderLowScore      = "Quote finder score below threshold; snippet omitted"
	warnFinderNoMatch       = "Quote finder found no match for the selected angle"
)

// Target types for the comment embedding.
const (
	TargetPost    = "post"
	TargetComment = "comment"
)

// PostContext is the projected post surfaced with the comment embedding.
type PostContext struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Subreddit string `json:"subreddit"`
	URL       string `json:"url"`
	Permalink string `json:"permalink"`
}

// CommentRef is one projected node of the picked comment chain.
type CommentRef struct {
	Author    string `json:"author"`
	Body      string `json:"body"`
	ID        string `json:"id"`
	ParentID  string `json:"parent_id"`
	Permalink string `json:"permalink"`
}

// CommentEmbedding records the comment-selector stage.
type CommentEmbedding struct {
	BitsUsed           string       `json:"bitsUsed"`
	BitsCount          int          `json:"bitsCount"`
	SelectionIndex     int          `json:"selectionIndex"`
	TargetType         string       `json:"targetType"`
	Context            PostContext  `json:"context"`
	PickedCommentChain []CommentRef `json:"pickedCommentChain"`
	InsufficientBits   bool         `json:"insufficientBits"`
}

// AngleEmbedding records the angle-selector stage.
type AngleEmbedding struct {
	BitsUsed         string         `json:"bitsUsed"`
	BitsCount        int            `json:"bitsCount"`
	RemainingBits    string         `json:"remainingBits"`
	SelectedAngles   []thread.Angle `json:"selectedAngles"`
	UnselectedAngles []thread.Angle `json:"unselectedAngles"`
	Snippet          *string        `json:"snippet"`
	InsufficientBits bool           `json:"insufficientBits"`
}

// Result is the full output record. Bit strings are ASCII '0'/'1'
// sequences; fullEncodedBits is the concatenation of the two selectors'
// consumed bits.
type Result struct {
	Compression       *lzdict.Result    `json:"compression"`
	CommentEmbedding  *CommentEmbedding `json:"commentEmbedding"`
	AngleEmbedding    *AngleEmbedding   `json:"angleEmbedding"`
	TotalBitsEmbedded int               `json:"totalBitsEmbedded"`
	FullEncodedBits   string            `json:"fullEncodedBits"`
	Warnings          []string          `json:"warnings"`
}
