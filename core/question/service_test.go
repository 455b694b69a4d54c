package question_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dailyq/dailyq/core"
	"github.com/dailyq/dailyq/core/question"
	"github.com/dailyq/dailyq/core/student"
	"github.com/dailyq/dailyq/storage/database/sqlxrepos"
	"github.com/dailyq/dailyq/testutil"
)

type fixture struct {
	svc       *question.Service
	questions question.Repository
	students  student.Repository
}

func setup(t *testing.T) fixture {
	t.Helper()
	testutil.FreezeTime(t, time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC))
	db := testutil.PrepareDB(t)
	repos := sqlxrepos.NewRepositories(db)
	return fixture{
		svc:       question.NewService(repos.Questions, core.Clock{Loc: time.UTC}),
		questions: repos.Questions,
		students:  repos.Students,
	}
}

func TestCleanContent(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{name: "trimmed", in: "  why is the sky blue?  ", want: "why is the sky blue?"},
		{name: "empty", in: "", wantErr: question.ErrEmptyContent},
		{name: "blank", in: " \n\t ", wantErr: question.ErrEmptyContent},
		{name: "max length", in: strings.Repeat("가", question.MaxContentLen), want: strings.Repeat("가", question.MaxContentLen)},
		{name: "too long", in: strings.Repeat("a", question.MaxContentLen+1), wantErr: question.ErrContentTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := question.CleanContent(tt.in)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_Create_oncePerDay(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	mina := testutil.CreateStudent(t, f.students, 3, 2, 15, "Mina", "1234")
	joon := testutil.CreateStudent(t, f.students, 3, 2, 16, "Joon", "1234")

	q, err := f.svc.Create(ctx, mina.ID, "  Why do cats purr? ")
	require.NoError(t, err)
	assert.Equal(t, "Why do cats purr?", q.Content)
	assert.Equal(t, "2024-03-04", q.CreatedDate)

	_, err = f.svc.Create(ctx, mina.ID, "Second one")
	assert.Equal(t, question.ErrAlreadyPosted, err)

	_, err = f.svc.Create(ctx, joon.ID, "Why is snow white?")
	assert.NoError(t, err)

	// a deleted question frees the day
	require.NoError(t, f.svc.Delete(ctx, mina.ID, q.ID))
	_, err = f.svc.Create(ctx, mina.ID, "Second one")
	assert.NoError(t, err)

	// and the next day is a new day
	testutil.FreezeTime(t, time.Date(2024, 3, 5, 0, 0, 1, 0, time.UTC))
	_, err = f.svc.Create(ctx, mina.ID, "Tomorrow's question")
	assert.NoError(t, err)
}

func TestService_Update(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	mina := testutil.CreateStudent(t, f.students, 3, 2, 15, "Mina", "1234")
	joon := testutil.CreateStudent(t, f.students, 3, 2, 16, "Joon", "1234")
	q := testutil.CreateQuestion(t, f.questions, mina.ID, "2024-03-01", "old")

	assert.Equal(t, question.ErrNotOwnerEdit, f.svc.Update(ctx, joon.ID, q.ID, "mine now"))
	assert.Equal(t, question.ErrNotFound, f.svc.Update(ctx, mina.ID, 999, "new"))
	assert.Equal(t, question.ErrEmptyContent, f.svc.Update(ctx, mina.ID, q.ID, "  "))

	// past questions stay editable
	require.NoError(t, f.svc.Update(ctx, mina.ID, q.ID, " new "))
	got, err := f.questions.GetActiveQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Content)
	assert.Equal(t, "2024-03-01", got.CreatedDate)
}

func TestService_Delete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	mina := testutil.CreateStudent(t, f.students, 3, 2, 15, "Mina", "1234")
	joon := testutil.CreateStudent(t, f.students, 3, 2, 16, "Joon", "1234")
	q := testutil.CreateQuestion(t, f.questions, mina.ID, "2024-03-04", "question")

	assert.Equal(t, question.ErrNotOwnerDelete, f.svc.Delete(ctx, joon.ID, q.ID))
	require.NoError(t, f.svc.Delete(ctx, mina.ID, q.ID))
	assert.Equal(t, question.ErrNotFound, f.svc.Delete(ctx, mina.ID, q.ID))
	assert.Equal(t, question.ErrNotFound, f.svc.Update(ctx, mina.ID, q.ID, "edit"))

	listing, err := f.svc.ListForDate(ctx, mina.ID, "", question.SortLatest)
	require.NoError(t, err)
	assert.Empty(t, listing.Questions)
	assert.False(t, listing.AlreadyPostedToday)

	admin, err := f.svc.AdminListForDate(ctx, "2024-03-04")
	require.NoError(t, err)
	require.Len(t, admin.Questions, 1)
	assert.True(t, admin.Questions[0].IsDeleted)
}

func TestService_ToggleLike(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	mina := testutil.CreateStudent(t, f.students, 3, 2, 15, "Mina", "1234")
	joon := testutil.CreateStudent(t, f.students, 3, 2, 16, "Joon", "1234")
	q := testutil.CreateQuestion(t, f.questions, mina.ID, "2024-03-04", "question")

	res, err := f.svc.ToggleLike(ctx, joon.ID, q.ID)
	require.NoError(t, err)
	assert.Equal(t, question.LikeResult{Liked: true, LikeCount: 1}, res)

	// own questions can be liked too
	res, err = f.svc.ToggleLike(ctx, mina.ID, q.ID)
	require.NoError(t, err)
	assert.Equal(t, question.LikeResult{Liked: true, LikeCount: 2}, res)

	res, err = f.svc.ToggleLike(ctx, joon.ID, q.ID)
	require.NoError(t, err)
	assert.Equal(t, question.LikeResult{Liked: false, LikeCount: 1}, res)

	_, err = f.svc.ToggleLike(ctx, joon.ID, 999)
	assert.Equal(t, question.ErrNotFound, err)

	require.NoError(t, f.svc.Delete(ctx, mina.ID, q.ID))
	_, err = f.svc.ToggleLike(ctx, joon.ID, q.ID)
	assert.Equal(t, question.ErrNotFound, err)
}

func TestService_ListForDate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	mina := testutil.CreateStudent(t, f.students, 3, 2, 15, "Mina", "1234")
	joon := testutil.CreateStudent(t, f.students, 4, 1, 3, "Joon", "1234")
	hana := testutil.CreateStudent(t, f.students, 5, 6, 7, "Hana", "1234")

	q1 := testutil.CreateQuestion(t, f.questions, mina.ID, "2024-03-04", "first")
	q2 := testutil.CreateQuestion(t, f.questions, joon.ID, "2024-03-04", "second")
	testutil.CreateQuestion(t, f.questions, hana.ID, "2024-03-03", "yesterday")

	_, err := f.svc.ToggleLike(ctx, hana.ID, q1.ID)
	require.NoError(t, err)

	listing, err := f.svc.ListForDate(ctx, mina.ID, "", question.SortLatest)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04", listing.Date)
	assert.True(t, listing.AlreadyPostedToday)
	assert.Equal(t, 2, listing.TotalCount)
	require.Len(t, listing.Questions, 2)
	// same created_at: newest id first
	assert.Equal(t, q2.ID, listing.Questions[0].ID)
	assert.Equal(t, "4-1 Joon", listing.Questions[0].Author)
	assert.False(t, listing.Questions[0].IsMine)
	assert.True(t, listing.Questions[1].IsMine)
	assert.Equal(t, 1, listing.Questions[1].LikeCount)
	assert.False(t, listing.Questions[1].LikedByMe)

	listing, err = f.svc.ListForDate(ctx, hana.ID, "", question.SortLikes)
	require.NoError(t, err)
	require.Len(t, listing.Questions, 2)
	assert.Equal(t, q1.ID, listing.Questions[0].ID)
	assert.True(t, listing.Questions[0].LikedByMe)
	assert.False(t, listing.AlreadyPostedToday, "hana posted yesterday, not today")

	listing, err = f.svc.ListForDate(ctx, hana.ID, "2024-03-03", question.SortLatest)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-03", listing.Date)
	require.Len(t, listing.Questions, 1)
	assert.True(t, listing.Questions[0].IsMine)

	listing, err = f.svc.ListForDate(ctx, hana.ID, "2020-01-01", question.SortLatest)
	require.NoError(t, err)
	assert.NotNil(t, listing.Questions)
	assert.Empty(t, listing.Questions)
}

func TestService_Dates(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	dates, err := f.svc.Dates(ctx)
	require.NoError(t, err)
	assert.NotNil(t, dates)
	assert.Empty(t, dates)

	mina := testutil.CreateStudent(t, f.students, 3, 2, 15, "Mina", "1234")
	joon := testutil.CreateStudent(t, f.students, 4, 1, 3, "Joon", "1234")
	testutil.CreateQuestion(t, f.questions, mina.ID, "2024-03-01", "a")
	testutil.CreateQuestion(t, f.questions, joon.ID, "2024-03-01", "b")
	deleted := testutil.CreateQuestion(t, f.questions, mina.ID, "2024-03-02", "c")
	testutil.CreateQuestion(t, f.questions, mina.ID, "2024-03-03", "d")
	_, err = f.svc.SetDeleted(ctx, true, deleted.ID)
	require.NoError(t, err)

	dates, err = f.svc.Dates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []question.DateCount{
		{Date: "2024-03-03", Count: 1},
		{Date: "2024-03-01", Count: 2},
	}, dates)
}

func TestService_Dates_limit(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	mina := testutil.CreateStudent(t, f.students, 3, 2, 15, "Mina", "1234")

	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < question.DateListLimit+5; i++ {
		testutil.CreateQuestion(t, f.questions, mina.ID, day.AddDate(0, 0, i).Format(core.DateLayout), "q")
	}

	dates, err := f.svc.Dates(ctx)
	require.NoError(t, err)
	require.Len(t, dates, question.DateListLimit)
	assert.Equal(t, day.AddDate(0, 0, question.DateListLimit+4).Format(core.DateLayout), dates[0].Date)
}

func TestService_SetDeleted(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	mina := testutil.CreateStudent(t, f.students, 3, 2, 15, "Mina", "1234")
	joon := testutil.CreateStudent(t, f.students, 4, 1, 3, "Joon", "1234")
	q1 := testutil.CreateQuestion(t, f.questions, mina.ID, "2024-03-04", "a")
	q2 := testutil.CreateQuestion(t, f.questions, joon.ID, "2024-03-04", "b")

	_, err := f.svc.SetDeleted(ctx, true)
	assert.Equal(t, question.ErrNoIDs, err)

	n, err := f.svc.SetDeleted(ctx, true, q1.ID, q2.ID, 999)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	listing, err := f.svc.ListForDate(ctx, mina.ID, "", question.SortLatest)
	require.NoError(t, err)
	assert.Empty(t, listing.Questions)

	n, err = f.svc.SetDeleted(ctx, false, q2.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	admin, err := f.svc.AdminListForDate(ctx, "")
	require.NoError(t, err)
	require.Len(t, admin.Questions, 2)
	assert.Equal(t, "4-1 Joon (No. 3)", admin.Questions[0].Author)
	assert.False(t, admin.Questions[0].IsDeleted)
	assert.True(t, admin.Questions[1].IsDeleted)
}
