package sidewing

import (
	"github.com/NasoohOlabi/stego-side-wing/bitio"
	"github.com/NasoohOlabi/stego-side-wing/thread"
)

// selectComment consumes Width(n) bits from the stream, where n is the
// flattened comment count (the extra slot names the post itself), and
// resolves the value to a target. Out-of-range values wrap modulo n+1.
func selectComment(c *bitio.Consumer, flat *thread.Flattened, post *thread.Post) *CommentEmbedding {
	n := flat.Len()
	k := bitio.Width(n)
	short := c.Remaining() < k

	v, field, err := c.TakeUint(k)
	if err != nil {
		// Width(n) can only exceed 64 bits with an absurd carrier; treat
		// it as selecting the post so the pipeline stays total.
		tracer().Errorf("comment selector field too wide: %v", err)
		v, field = 0, ""
	}
	s := int(v)
	if s > n {
		s = s % (n + 1)
	}

	emb := &CommentEmbedding{
		BitsUsed:       field,
		BitsCount:      k,
		SelectionIndex: s,
		TargetType:     TargetPost,
		Context: PostContext{
			ID:        post.ID,
			Title:     post.Title,
			Author:    post.Author,
			Subreddit: post.Subreddit,
			URL:       post.URL,
			Permalink: post.Permalink,
		},
		PickedCommentChain: []CommentRef{},
		InsufficientBits:   short,
	}
	if s == 0 {
		return emb
	}
	emb.TargetType = TargetComment
	for _, node := range flat.Chain(flat.At(s - 1)) {
		emb.PickedCommentChain = append(emb.PickedCommentChain, projectComment(node))
	}
	return emb
}

func projectComment(c *thread.Comment) CommentRef {
	author := c.Author
	if author == "" {
		author = "unknown"
	}
	return CommentRef{
		Author:    author,
		Body:      c.Body,
		ID:        c.ID,
		ParentID:  c.ParentID,
		Permalink: c.Permalink,
	}
}
