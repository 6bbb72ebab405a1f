package document

import (
	"fmt"

	"github.com/laurentvergnaud/kaigen-plugin/internal/apperror"
)

// Validate checks the post-level invariants of a merged document. It runs
// strictly after Merge and before any persistence, so a document violating
// these invariants is never written, even transiently.
func Validate(doc Document) error {
	post, ok := doc.Section(SectionPost)
	if !ok {
		return apperror.New(apperror.ValidationFailed, "post section missing or not an object")
	}

	title, present := post["title"]
	if !present {
		return apperror.New(apperror.ValidationFailed, "post.title is required")
	}
	if _, ok := AsString(title); !ok {
		return apperror.New(apperror.ValidationFailed, "post.title must be a string")
	}

	content, present := post["content"]
	if !present {
		return apperror.New(apperror.ValidationFailed, "post.content is required")
	}
	if _, ok := AsString(content); !ok {
		return apperror.New(apperror.ValidationFailed, "post.content must be a string")
	}

	if status, present := post["status"]; present {
		s, ok := AsString(status)
		if !ok || !AllowedStatuses[s] {
			return apperror.New(apperror.ValidationFailed,
				fmt.Sprintf("post.status %q is not one of: publish, draft, pending, private", status))
		}
	}

	return nil
}
