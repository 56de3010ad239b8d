package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ajramos/giznotion/internal/accounts"
	"github.com/ajramos/giznotion/internal/notion"
)

type searchCall struct {
	id     accounts.ID
	cursor string
}

// scriptedSearcher answers by account and cursor
type scriptedSearcher struct {
	mu      sync.Mutex
	calls   []searchCall
	results map[searchCall]*notion.SearchResult
	errs    map[accounts.ID]error
}

func (s *scriptedSearcher) SearchPages(ctx context.Context, id accounts.ID, query, cursor string, pageSize int) (*notion.SearchResult, error) {
	s.mu.Lock()
	s.calls = append(s.calls, searchCall{id: id, cursor: cursor})
	s.mu.Unlock()

	if err := s.errs[id]; err != nil {
		return nil, err
	}
	if r, ok := s.results[searchCall{id: id, cursor: cursor}]; ok {
		return r, nil
	}
	return &notion.SearchResult{}, nil
}

func (s *scriptedSearcher) callsFor(id accounts.ID) []searchCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []searchCall
	for _, c := range s.calls {
		if c.id == id {
			out = append(out, c)
		}
	}
	return out
}

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testPage(id string, account accounts.ID, minutes int) notion.Page {
	return notion.Page{Object: "page", ID: id, Title: id, AccountID: account, LastEditedTime: baseTime.Add(time.Duration(minutes) * time.Minute)}
}

func ids(pages []notion.Page) []string {
	out := make([]string, 0, len(pages))
	for _, p := range pages {
		out = append(out, p.ID)
	}
	return out
}

func TestFederatedPager_MergesAndSorts(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	searcher := &scriptedSearcher{results: map[searchCall]*notion.SearchResult{
		{id: accounts.Account1}: {Pages: []notion.Page{testPage("a-new", accounts.Account1, 40), testPage("a-old", accounts.Account1, 10)}},
		{id: accounts.Account2}: {Pages: []notion.Page{testPage("b-new", accounts.Account2, 30), testPage("b-old", accounts.Account2, 20)}},
	}}
	pager := NewFederatedPager(dualRegistry(), searcher, 25, nil)

	result, err := pager.Page(context.Background(), "notes", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a-new", "b-new", "b-old", "a-old"}, ids(result.Items))
	assert.Empty(t, result.NextCursor)
	assert.False(t, result.HasMore())
}

func TestFederatedPager_StableForEqualTimes(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	searcher := &scriptedSearcher{results: map[searchCall]*notion.SearchResult{
		{id: accounts.Account1}: {Pages: []notion.Page{testPage("a", accounts.Account1, 5)}},
		{id: accounts.Account2}: {Pages: []notion.Page{testPage("b", accounts.Account2, 5)}},
	}}
	pager := NewFederatedPager(dualRegistry(), searcher, 25, nil)

	result, err := pager.Page(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(result.Items))
}

func TestFederatedPager_CursorSkipsExhaustedAccounts(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	searcher := &scriptedSearcher{results: map[searchCall]*notion.SearchResult{
		{id: accounts.Account1}:               {Pages: []notion.Page{testPage("a1", accounts.Account1, 10)}, HasMore: true, NextCursor: "c1"},
		{id: accounts.Account2}:               {Pages: []notion.Page{testPage("b1", accounts.Account2, 20)}},
		{id: accounts.Account1, cursor: "c1"}: {Pages: []notion.Page{testPage("a2", accounts.Account1, 5)}},
	}}
	pager := NewFederatedPager(dualRegistry(), searcher, 25, nil)
	ctx := context.Background()

	first, err := pager.Page(ctx, "q", "")
	require.NoError(t, err)
	require.NotEmpty(t, first.NextCursor)

	decoded, err := DecodeCursor(first.NextCursor)
	require.NoError(t, err)
	require.Contains(t, decoded, accounts.Account1)
	require.Contains(t, decoded, accounts.Account2)
	require.NotNil(t, decoded[accounts.Account1])
	assert.Equal(t, "c1", *decoded[accounts.Account1])
	assert.Nil(t, decoded[accounts.Account2])

	second, err := pager.Page(ctx, "q", first.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, []string{"a2"}, ids(second.Items))
	assert.Empty(t, second.NextCursor)

	assert.Len(t, searcher.callsFor(accounts.Account2), 1, "exhausted account must not be queried again")
	assert.Equal(t, []searchCall{{id: accounts.Account1}, {id: accounts.Account1, cursor: "c1"}}, searcher.callsFor(accounts.Account1))
}

func TestFederatedPager_FailureFailsPage(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	boom := errors.New("boom")
	searcher := &scriptedSearcher{
		results: map[searchCall]*notion.SearchResult{
			{id: accounts.Account1}: {Pages: []notion.Page{testPage("a", accounts.Account1, 1)}},
		},
		errs: map[accounts.ID]error{accounts.Account2: boom},
	}
	pager := NewFederatedPager(dualRegistry(), searcher, 25, nil)

	result, err := pager.Page(context.Background(), "q", "")
	assert.Nil(t, result)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSearchFailed)
	assert.ErrorIs(t, err, boom)

	var failed *SearchFailedError
	require.True(t, errors.As(err, &failed))
	assert.Equal(t, accounts.Account2, failed.AccountID)
}

func TestFederatedPager_MalformedCursorStartsFresh(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	searcher := &scriptedSearcher{results: map[searchCall]*notion.SearchResult{
		{id: accounts.Account1}: {Pages: []notion.Page{testPage("a", accounts.Account1, 1)}},
	}}
	pager := NewFederatedPager(singleRegistry(), searcher, 0, nil)

	result, err := pager.Page(context.Background(), "q", "%%%not-a-cursor")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(result.Items))
	assert.Equal(t, []searchCall{{id: accounts.Account1}}, searcher.callsFor(accounts.Account1))
}

func TestFederatedPager_SingleAccountPaging(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	searcher := &scriptedSearcher{results: map[searchCall]*notion.SearchResult{
		{id: accounts.Account1}: {Pages: []notion.Page{testPage("a", accounts.Account1, 1)}, HasMore: true, NextCursor: "next"},
	}}
	pager := NewFederatedPager(singleRegistry(), searcher, 10, nil)

	result, err := pager.Page(context.Background(), "q", "")
	require.NoError(t, err)
	assert.True(t, result.HasMore())

	decoded, err := DecodeCursor(result.NextCursor)
	require.NoError(t, err)
	assert.Len(t, decoded, 1)
	assert.Equal(t, "next", *decoded[accounts.Account1])
}

func TestFederatedPager_HasMoreWithoutCursorIsTerminal(t *testing.T) {
	searcher := &scriptedSearcher{results: map[searchCall]*notion.SearchResult{
		{id: accounts.Account1}: {Pages: []notion.Page{testPage("a", accounts.Account1, 1)}, HasMore: true},
	}}
	pager := NewFederatedPager(singleRegistry(), searcher, 10, nil)

	result, err := pager.Page(context.Background(), "q", "")
	require.NoError(t, err)
	assert.Empty(t, result.NextCursor)
}

func TestCursorRoundTrip(t *testing.T) {
	c := "abc"
	encoded, err := EncodeCursor(map[accounts.ID]*string{accounts.Account1: &c, accounts.Account2: nil})
	require.NoError(t, err)
	assert.NotContains(t, encoded, "=")

	decoded, err := DecodeCursor(encoded)
	require.NoError(t, err)
	assert.Equal(t, "abc", *decoded[accounts.Account1])
	v, present := decoded[accounts.Account2]
	assert.True(t, present)
	assert.Nil(t, v)
}

func TestDecodeCursor_Invalid(t *testing.T) {
	for _, cursor := range []string{"!!!", "bnVsbA", "WzFd"} { // garbage, "null", "[1]"
		_, err := DecodeCursor(cursor)
		assert.Error(t, err, cursor)
	}
}

func TestNotionSearcher_TagsAccount(t *testing.T) {
	cache := newServerCache(t, dualRegistry(), func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("Authorization")
		_, _ = io.WriteString(w, fmt.Sprintf(`{"results":[{"object":"page","id":"p-%s","last_edited_time":"2024-01-01T00:00:00.000Z","properties":{}}],"has_more":false,"next_cursor":null}`, token[len("Bearer token-"):]))
	})
	searcher := NewNotionSearcher(cache)

	result, err := searcher.SearchPages(context.Background(), accounts.Account2, "q", "", 10)
	require.NoError(t, err)
	require.Len(t, result.Pages, 1)
	assert.Equal(t, "p-account-2", result.Pages[0].ID)
	assert.Equal(t, accounts.Account2, result.Pages[0].AccountID)
	assert.Equal(t, "Untitled", result.Pages[0].Title)
}
