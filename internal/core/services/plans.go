package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/manthysbr/connectorseed/internal/core/domain"
	"github.com/manthysbr/connectorseed/internal/core/ports"
)

// Top-level folders created at each file destination.
const (
	S3RootFolder       = "s3-q-connector"
	OneDriveRootFolder = "onedrive-q-connector"
	GDriveRootFolder   = "gdrive-q-connector"
)

const (
	fileMaxTokens       = 500
	shortFileMaxTokens  = 400
	issueMaxTokens      = 600
	subjectMaxTokens    = 100
	emailBodyMaxTokens  = 500
	attachmentMaxTokens = 400
)

// TeamCategories are the team folders of the S3 and OneDrive layouts.
func TeamCategories() []domain.Category {
	return flatCategories("hr", "legal", "policies", "documentation", "finance")
}

func flatCategories(names ...string) []domain.Category {
	out := make([]domain.Category, len(names))
	for i, n := range names {
		out[i] = domain.Category{Name: n, Path: []string{n}}
	}
	return out
}

func teamFileInstruction(item ItemSpec) string {
	return fmt.Sprintf(`Generate professional %s content for %s team related to: "%s".

Requirements:
- Write exactly 100-200 words
- Make it relevant and specific to the prompt
- Use professional business language
- Include actionable information
- Format appropriately for %s

Return only the content, no explanations:`, item.Type.Name, item.Category.Name, item.Prompt, item.Type.Name)
}

// S3Plan writes <root>/<project>/<team>/<team>_<i><ext> objects.
func S3Plan(dest ports.Destination, prompt string, count int, pacing time.Duration) BatchPlan {
	return teamFilePlan(dest, S3RootFolder, prompt, count, pacing)
}

// OneDrivePlan uses the S3 layout below the OneDrive root folder. Team
// folders are created on first use.
func OneDrivePlan(dest ports.Destination, prompt string, count int, pacing time.Duration) BatchPlan {
	return teamFilePlan(dest, OneDriveRootFolder, prompt, count, pacing)
}

func teamFilePlan(dest ports.Destination, root, prompt string, count int, pacing time.Duration) BatchPlan {
	return BatchPlan{
		Destination:   dest,
		Prompt:        prompt,
		ItemCount:     count,
		NameProject:   true,
		Root:          func(project string) []string { return []string{root, project} },
		Categories:    TeamCategories(),
		ArtifactTypes: domain.DocumentTypes(),
		Instruction:   teamFileInstruction,
		MaxTokens:     fileMaxTokens,
		Pacing:        pacing,
	}
}

// GDriveCategories are the eight placement folders of a Drive project.
func GDriveCategories() []domain.Category {
	return []domain.Category{
		{Name: "Documents", Path: []string{"Documents"}},
		{Name: "Documents-Templates", Path: []string{"Documents", "Templates"}},
		{Name: "Resources", Path: []string{"Resources"}},
		{Name: "Resources-Images", Path: []string{"Resources", "Images"}},
		{Name: "Data", Path: []string{"Data"}},
		{Name: "Data-Raw", Path: []string{"Data", "Raw"}},
		{Name: "Reports", Path: []string{"Reports"}},
		{Name: "Reports-Monthly", Path: []string{"Reports", "Monthly"}},
	}
}

// GDrivePlan creates the whole folder tree up front and uploads any of the
// file types, shaped per type by the adapter.
func GDrivePlan(dest ports.Destination, prompt string, count int, pacing time.Duration) BatchPlan {
	return BatchPlan{
		Destination:     dest,
		Prompt:          prompt,
		ItemCount:       count,
		NameProject:     true,
		Root:            func(project string) []string { return []string{GDriveRootFolder, project} },
		Categories:      GDriveCategories(),
		ArtifactTypes:   domain.AllFileTypes(),
		EagerContainers: true,
		Instruction: func(item ItemSpec) string {
			return fmt.Sprintf(`Generate %s content for %s folder related to: "%s"
Write 100-150 words of relevant professional content. Return only the content:`,
				item.Type.Name, strings.Join(item.Category.Path, " "), item.Prompt)
		},
		MaxTokens: shortFileMaxTokens,
		ItemName: func(item ItemSpec) string {
			return fmt.Sprintf("%s_%d%s", strings.ToLower(item.Category.Name), item.Index, item.Type.Extension)
		},
		Pacing: pacing,
	}
}

// SharePointTeams are the team folders of a SharePoint project.
var SharePointTeams = []string{"Documents", "Resources", "Reports"}

// SharePointStages are the sub-folders created under each team in nested mode.
var SharePointStages = []string{"Active", "Archive", "Templates"}

// SharePointCategories lists the upload folders, either one per team or one
// per team and stage.
func SharePointCategories(nested bool) []domain.Category {
	if !nested {
		return flatCategories(SharePointTeams...)
	}
	var out []domain.Category
	for _, team := range SharePointTeams {
		for _, stage := range SharePointStages {
			out = append(out, domain.Category{Name: team, Path: []string{team, stage}})
		}
	}
	return out
}

// SharePointFolder is the project folder created at the library root.
func SharePointFolder(library, project string) string {
	return fmt.Sprintf("%s-q-connector-%s", library, project)
}

// SharePointPlan creates every team folder, and their stages in nested mode,
// before uploading.
func SharePointPlan(dest ports.Destination, prompt, library string, count int, nested bool, pacing time.Duration) BatchPlan {
	return BatchPlan{
		Destination:     dest,
		Prompt:          prompt,
		ItemCount:       count,
		NameProject:     true,
		Root:            func(project string) []string { return []string{SharePointFolder(library, project)} },
		Categories:      SharePointCategories(nested),
		ArtifactTypes:   domain.DocumentTypes(),
		EagerContainers: true,
		Instruction: func(item ItemSpec) string {
			return fmt.Sprintf(`Generate professional %s content for %s team related to: "%s". Write 100-150 words. Return only the content:`,
				item.Type.Name, item.Category.Name, item.Prompt)
		},
		MaxTokens: shortFileMaxTokens,
		Pacing:    pacing,
	}
}

// SecurityCategories maps a requested security level to issue labels.
// Unknown levels file issues without labels.
func SecurityCategories(level string) []domain.Category {
	switch level {
	case "Mixed", "":
		return []domain.Category{{Name: "confidential"}, {Name: "open"}}
	case "Confidential":
		return []domain.Category{{Name: "confidential"}}
	case "Open":
		return []domain.Category{{Name: "open"}}
	default:
		return []domain.Category{{}}
	}
}

var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

type issueDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// JiraPlan files one issue per item in the given project. Each issue is
// generated on its own; a response that is not a usable JSON object falls
// back to a title derived from the prompt.
func JiraPlan(dest ports.Destination, prompt, projectKey, securityLevel string, count int) BatchPlan {
	return BatchPlan{
		Destination:   dest,
		Prompt:        prompt,
		ItemCount:     count,
		Root:          func(string) []string { return []string{projectKey} },
		Categories:    SecurityCategories(securityLevel),
		ArtifactTypes: []domain.ArtifactType{domain.TypeIssue},
		Compose: func(ctx context.Context, gen ports.Generator, item ItemSpec) (domain.GeneratedArtifact, error) {
			draft := issueDraft{
				Title:       fmt.Sprintf("%s - Issue %d", item.Prompt, item.Index),
				Description: fmt.Sprintf("Generated issue %d based on: %s", item.Index, item.Prompt),
			}
			text, err := gen.Generate(ctx, issueInstruction(item, count), issueMaxTokens)
			if err != nil {
				return domain.GeneratedArtifact{}, err
			}
			var parsed issueDraft
			if raw := jsonObject.FindString(text); raw != "" && json.Unmarshal([]byte(raw), &parsed) == nil && parsed.Title != "" {
				draft.Title = parsed.Title
				if parsed.Description != "" {
					draft.Description = parsed.Description
				}
			}
			return domain.GeneratedArtifact{
				Name:  draft.Title,
				Title: draft.Title,
				Body:  draft.Description,
				Text:  draft.Description,
			}, nil
		},
	}
}

func issueInstruction(item ItemSpec, count int) string {
	return fmt.Sprintf(`You are a Jira issue generator. Create Jira issue %d of %d, distinct and actionable, for: "%s"

Requirements:
- The issue must have a clear, specific title (max 100 chars)
- The description must be detailed and actionable (2-3 sentences)
- Cover a different aspect than the other issues of this project
- Focus on a practical, implementable task

Return ONLY this JSON object format:
{"title": "Issue title here", "description": "Detailed description here"}
No explanations, no markdown, just the JSON object:`, item.Index, count, item.Prompt)
}

// GmailPlan sends one email per item, each with a generated subject, body
// and attachment.
func GmailPlan(dest ports.Destination, prompt string, count int, pacing time.Duration) BatchPlan {
	return BatchPlan{
		Destination:   dest,
		Prompt:        prompt,
		ItemCount:     count,
		Categories:    []domain.Category{{}},
		ArtifactTypes: domain.AttachmentTypes(),
		Compose:       composeEmail,
		Pacing:        pacing,
	}
}

func composeEmail(ctx context.Context, gen ports.Generator, item ItemSpec) (domain.GeneratedArtifact, error) {
	subject, err := gen.Generate(ctx, fmt.Sprintf(`Generate a unique professional email subject line for email %d related to: "%s". Make it specific and actionable. Return only the subject line:`,
		item.Index, item.Prompt), subjectMaxTokens)
	if err != nil {
		return domain.GeneratedArtifact{}, fmt.Errorf("generate subject: %w", err)
	}
	subject = strings.ReplaceAll(subject, `"`, "")

	body, err := gen.Generate(ctx, fmt.Sprintf(`Write a professional email body for: "%s" related to project: "%s". Write 150-200 words. Include specific details and actionable items. Return only the email content:`,
		subject, item.Prompt), emailBodyMaxTokens)
	if err != nil {
		return domain.GeneratedArtifact{}, fmt.Errorf("generate body: %w", err)
	}

	attachment, err := gen.Generate(ctx, fmt.Sprintf(`Generate %s content for attachment related to: "%s". Write 100-150 words of relevant professional content. Return only the content:`,
		item.Type.Name, subject), attachmentMaxTokens)
	if err != nil {
		return domain.GeneratedArtifact{}, fmt.Errorf("generate attachment: %w", err)
	}

	return domain.GeneratedArtifact{
		Name:  fmt.Sprintf("attachment_%d%s", item.Index, item.Type.Extension),
		Title: subject,
		Body:  body,
		Text:  attachment,
	}, nil
}
