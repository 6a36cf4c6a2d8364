package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/manthysbr/connectorseed/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3Plan_Layout(t *testing.T) {
	dest := newMemoryDestination()
	gen := &scriptedGenerator{
		answers:  map[string]string{"Extract a company name": "TechCorp"},
		fallback: "content",
	}

	// team legal (1), type CSV (3)
	result, err := newTestPipeline(gen).Run(context.Background(),
		S3Plan(dest, "Create marketing materials for TechCorp", 1, 0),
		&sequenceRandom{ints: []int{1, 3}})
	require.NoError(t, err)

	require.Len(t, result.Created, 1)
	assert.Equal(t, "s3-q-connector/techcorp", result.ContainerPath)
	assert.Equal(t, "s3-q-connector/techcorp/legal/legal_1.csv", result.Created[0].Path)
	assert.Contains(t, gen.calls[1], "Generate professional CSV content for legal team")
}

func TestOneDrivePlan_CreatesTeamFoldersLazily(t *testing.T) {
	dest := newMemoryDestination()
	dest.ensureErr["onedrive-q-connector/topic/hr"] = errors.New("quota")

	// item 1 -> hr fails, item 2 -> finance succeeds
	result, err := newTestPipeline(topicGenerator()).Run(context.Background(),
		OneDrivePlan(dest, "topic", 2, 0),
		&sequenceRandom{ints: []int{0, 0, 4, 0}})
	require.NoError(t, err)

	require.Len(t, result.Failed, 1)
	assert.Equal(t, 1, result.Failed[0].Index)
	require.Len(t, result.Created, 1)
	assert.Equal(t, "finance", result.Created[0].Category)
}

func TestGDrivePlan_EagerTreeAndNames(t *testing.T) {
	dest := newMemoryDestination()

	// placement Data-Raw (5), type SVG (14)
	result, err := newTestPipeline(topicGenerator()).Run(context.Background(),
		GDrivePlan(dest, "topic", 1, 0),
		&sequenceRandom{ints: []int{5, 14}})
	require.NoError(t, err)

	assert.Len(t, dest.containers, 2+8)
	assert.Contains(t, dest.containers, "gdrive-q-connector/topic/Reports/Monthly")

	require.Len(t, result.Created, 1)
	assert.Equal(t, "data-raw_1.svg", result.Created[0].Name)
	assert.Equal(t, "gdrive-q-connector/topic/Data/Raw/data-raw_1.svg", result.Created[0].Path)
}

func TestSharePointCategories(t *testing.T) {
	assert.Len(t, SharePointCategories(false), 3)

	nested := SharePointCategories(true)
	require.Len(t, nested, 9)
	assert.Equal(t, domain.Category{Name: "Reports", Path: []string{"Reports", "Templates"}}, nested[8])
}

func TestSharePointPlan_NestedFoldersAreEager(t *testing.T) {
	dest := newMemoryDestination()

	result, err := newTestPipeline(topicGenerator()).Run(context.Background(),
		SharePointPlan(dest, "topic", "Documents", 0, true, 0),
		&sequenceRandom{})
	require.NoError(t, err)

	assert.Equal(t, "Documents-q-connector-topic", result.ContainerPath)
	assert.Len(t, dest.containers, 1+3+9)
	assert.Contains(t, dest.containers, "Documents-q-connector-topic/Resources/Archive")
}

func TestSecurityCategories(t *testing.T) {
	assert.Len(t, SecurityCategories("Mixed"), 2)
	assert.Equal(t, "confidential", SecurityCategories("Confidential")[0].Name)
	assert.Equal(t, "open", SecurityCategories("Open")[0].Name)
	assert.Equal(t, []domain.Category{{}}, SecurityCategories("Internal"))
}

func TestJiraPlan_ParsesDraft(t *testing.T) {
	dest := newMemoryDestination()
	gen := &scriptedGenerator{
		fallback: "Sure! ```json\n{\"title\": \"Set up CI\", \"description\": \"Add a pipeline.\"}\n```",
	}

	result, err := newTestPipeline(gen).Run(context.Background(),
		JiraPlan(dest, "Launch TechCorp app", "TC", "Open", 1), &sequenceRandom{})
	require.NoError(t, err)

	require.Len(t, dest.delivered, 1)
	issue := dest.delivered[0]
	assert.Equal(t, "Set up CI", issue.Title)
	assert.Equal(t, "Add a pipeline.", issue.Body)
	assert.Equal(t, "open", issue.Category.Name)
	assert.Equal(t, domain.TypeIssue, issue.Type)
	assert.Equal(t, "TC", result.ContainerPath)
	assert.Contains(t, gen.calls[0], "issue 1 of 1")
}

func TestJiraPlan_FallbackDraft(t *testing.T) {
	dest := newMemoryDestination()
	gen := &scriptedGenerator{fallback: "I cannot help with that."}

	_, err := newTestPipeline(gen).Run(context.Background(),
		JiraPlan(dest, "Launch app", "TC", "Mixed", 2), &sequenceRandom{ints: []int{0, 0, 1, 0}})
	require.NoError(t, err)

	require.Len(t, dest.delivered, 2)
	assert.Equal(t, "Launch app - Issue 2", dest.delivered[1].Title)
	assert.Equal(t, "Generated issue 2 based on: Launch app", dest.delivered[1].Body)
	assert.Equal(t, "confidential", dest.delivered[0].Category.Name)
	assert.Equal(t, "open", dest.delivered[1].Category.Name)
}

func TestGmailPlan_ComposesThreeParts(t *testing.T) {
	dest := newMemoryDestination()
	gen := &scriptedGenerator{
		answers: map[string]string{
			"subject line":        `"Kickoff: TechCorp launch"`,
			"email body for":      "Hi all, details below.",
			"content for attachm": "a,b\n1,2",
		},
	}

	// attachment type CSV (1)
	result, err := newTestPipeline(gen).Run(context.Background(),
		GmailPlan(dest, "TechCorp launch", 1, 0), &sequenceRandom{ints: []int{0, 1}})
	require.NoError(t, err)

	assert.Empty(t, result.ContainerPath)
	require.Len(t, dest.delivered, 1)
	mail := dest.delivered[0]
	assert.Equal(t, "Kickoff: TechCorp launch", mail.Title)
	assert.Equal(t, "Hi all, details below.", mail.Body)
	assert.Equal(t, "a,b\n1,2", mail.Text)
	assert.Equal(t, "attachment_1.csv", mail.Name)
	assert.Len(t, gen.calls, 3)
	assert.True(t, strings.Contains(gen.calls[1], "Kickoff: TechCorp launch"))
}

func TestGmailPlan_GenerationFailureIsPerItem(t *testing.T) {
	dest := newMemoryDestination()
	gen := &scriptedGenerator{err: errors.New("throttled")}

	result, err := newTestPipeline(gen).Run(context.Background(),
		GmailPlan(dest, "x", 2, 0), &sequenceRandom{})
	require.NoError(t, err)
	assert.Len(t, result.Failed, 2)
	assert.Contains(t, result.Failed[0].Error, "generate subject")
	assert.False(t, result.Success)
}

type fakeSite struct {
	*memoryDestination
	hasHome bool
	err     error
	title   string
}

func (s *fakeSite) SiteURL() string { return "https://contoso.sharepoint.com/sites/mkt" }

func (s *fakeSite) UpdateHomepage(_ context.Context, title, _ string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	s.title = title
	return s.hasHome, nil
}

func TestSiteContentUpdater(t *testing.T) {
	gen := &scriptedGenerator{fallback: strings.Repeat("<p>overview</p>", 30)}
	site := &fakeSite{memoryDestination: newMemoryDestination(), hasHome: true}

	got := NewSiteContentUpdater(testLogger(), gen).Update(context.Background(), site, "launch", "techcorp", "Documents-q-connector-techcorp")

	require.NotNil(t, got.Homepage)
	assert.True(t, got.Homepage.Updated)
	assert.Equal(t, "techcorp - Project Overview", site.title)
	assert.Len(t, got.Homepage.Content, 203)
	require.NotNil(t, got.Navigation)
	require.Len(t, got.Navigation.Links, 3)
	assert.Equal(t, "https://contoso.sharepoint.com/sites/mkt/Shared Documents/Documents-q-connector-techcorp/Reports", got.Navigation.Links[2].URL)
	assert.Empty(t, got.Error)
}

func TestSiteContentUpdater_Failure(t *testing.T) {
	gen := &scriptedGenerator{fallback: "overview"}
	site := &fakeSite{memoryDestination: newMemoryDestination(), err: errors.New("forbidden")}

	got := NewSiteContentUpdater(testLogger(), gen).Update(context.Background(), site, "launch", "p", "f")
	assert.Nil(t, got.Homepage)
	assert.Equal(t, "forbidden", got.Error)
}
