package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStd = errors.New("standard error")

func TestNew(t *testing.T) {
	t.Parallel()

	err := New(NotFound, "애플리케이션을 찾을 수 없습니다")
	require.Error(t, err)

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, NotFound, appErr.Type())
	assert.Equal(t, "애플리케이션을 찾을 수 없습니다", appErr.Message())
	assert.Equal(t, "[NotFound] 애플리케이션을 찾을 수 없습니다", err.Error())
	require.NotEmpty(t, appErr.Stack())
	assert.Equal(t, "errors_test.go", appErr.Stack()[0].File)
}

func TestNewf(t *testing.T) {
	t.Parallel()

	err := Newf(Conflict, "발송 예정 %d건이 한도 %d건을 초과합니다", 12, 10)
	assert.Equal(t, "[Conflict] 발송 예정 12건이 한도 10건을 초과합니다", err.Error())
}

func TestWrap(t *testing.T) {
	t.Parallel()

	t.Run("nil 에러는 nil을 반환", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, Internal, "무시됨"))
		assert.Nil(t, Wrapf(nil, Internal, "무시됨 %d", 1))
	})

	t.Run("원인 에러 보존", func(t *testing.T) {
		err := Wrap(errStd, ExecutionFailed, "API 호출 실패")
		assert.Equal(t, "[ExecutionFailed] API 호출 실패: standard error", err.Error())
		assert.True(t, errors.Is(err, errStd))
		assert.Equal(t, errStd, RootCause(err))
	})

	t.Run("같은 타입의 원인은 타입 표기를 반복하지 않음", func(t *testing.T) {
		sentinel := New(ParsingFailed, "인증서를 해석할 수 없습니다")
		err := Wrap(sentinel, ParsingFailed, "1번째 인증서: 본문이 비어 있습니다")
		assert.Equal(t, "[ParsingFailed] 1번째 인증서: 본문이 비어 있습니다: 인증서를 해석할 수 없습니다", err.Error())
		assert.True(t, errors.Is(err, sentinel))
	})

	t.Run("다른 타입의 원인은 타입 표기 유지", func(t *testing.T) {
		err := Wrap(New(NotFound, "없음"), ExecutionFailed, "조회 실패")
		assert.Equal(t, "[ExecutionFailed] 조회 실패: [NotFound] 없음", err.Error())
	})

	t.Run("Wrapf 포맷", func(t *testing.T) {
		err := Wrapf(errStd, ParsingFailed, "app(%s) 파싱 실패", "app-1")
		assert.Contains(t, err.Error(), "app(app-1) 파싱 실패")
	})
}

func TestIs(t *testing.T) {
	t.Parallel()

	err := Wrap(New(NotFound, "없음"), ExecutionFailed, "조회 실패")

	assert.True(t, Is(err, NotFound))
	assert.True(t, Is(err, ExecutionFailed))
	assert.False(t, Is(err, Conflict))
	assert.False(t, Is(nil, NotFound))
	assert.False(t, Is(errStd, Unknown))
}

func TestUnderlyingType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, Unknown},
		{"표준 에러", errStd, Unknown},
		{"단일 AppError", New(Unavailable, "x"), Unavailable},
		{"체인", Wrap(New(NotFound, "x"), Internal, "y"), NotFound},
		{"외부 에러 래핑", Wrap(errStd, ParsingFailed, "y"), ParsingFailed},
		{"fmt 래핑", fmt.Errorf("outer: %w", New(Conflict, "x")), Conflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UnderlyingType(tt.err))
		})
	}
}

func TestRootCause(t *testing.T) {
	t.Parallel()

	assert.Nil(t, RootCause(nil))

	root := New(NotFound, "root")
	err := Wrap(Wrap(root, Internal, "mid"), System, "top")
	assert.Same(t, root, RootCause(err))
}

func TestAppError_Format(t *testing.T) {
	t.Parallel()

	err := Wrap(New(NotFound, "root"), Internal, "top")

	assert.Equal(t, err.Error(), fmt.Sprintf("%s", err))
	assert.Equal(t, fmt.Sprintf("%q", err.Error()), fmt.Sprintf("%q", err))

	detailed := fmt.Sprintf("%+v", err)
	assert.Contains(t, detailed, "[Internal] top")
	assert.Contains(t, detailed, "Caused by:")
	assert.Contains(t, detailed, "[NotFound] root")
	assert.Contains(t, detailed, "Stack trace:")
}

func TestErrorType_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		errType ErrorType
		want    string
	}{
		{Unknown, "Unknown"},
		{Internal, "Internal"},
		{System, "System"},
		{InvalidInput, "InvalidInput"},
		{NotFound, "NotFound"},
		{Conflict, "Conflict"},
		{ExecutionFailed, "ExecutionFailed"},
		{ParsingFailed, "ParsingFailed"},
		{Unavailable, "Unavailable"},
		{ErrorType(-1), "ErrorType(-1)"},
		{ErrorType(999), "ErrorType(999)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.errType.String())
		})
	}
}
