package apperr

import (
	"errors"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

var errSeatsGone = errors.New("course is full")

func TestKindOfClassifiedError(t *testing.T) {
	err := Conflict(errSeatsGone, "course %s", "c-1")

	assert.Equal(t, KindConflict, KindOf(err))
	assert.True(t, errors.Is(err, errSeatsGone))
	assert.Equal(t, "course c-1: course is full", err.Error())
}

func TestKindOfSurvivesWrapping(t *testing.T) {
	err := pkgerrors.Wrap(NotFound(nil, "payment not found"), "transition payment")

	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "payment not found", Detail(err))
}

func TestUnclassifiedIsUpstream(t *testing.T) {
	err := errors.New("connection reset")

	assert.Equal(t, KindUpstream, KindOf(err))
	assert.Equal(t, "internal error", Detail(err))
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindUpstream:        "upstream",
		KindNotFound:        "not_found",
		KindConflict:        "conflict",
		KindInvalidArgument: "invalid_argument",
		KindUnauthorized:    "unauthorized",
		KindForbidden:       "forbidden",
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.String())
	}
}
