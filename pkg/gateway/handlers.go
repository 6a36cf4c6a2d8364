package gateway

import (
	"fmt"
	"net/http"
	"net/mail"

	"github.com/manthysbr/connectorseed/internal/adapters/gmail"
	"github.com/manthysbr/connectorseed/internal/adapters/jira"
	"github.com/manthysbr/connectorseed/internal/adapters/s3store"
	"github.com/manthysbr/connectorseed/internal/core/domain"
	"github.com/manthysbr/connectorseed/internal/core/services"
)

const (
	defaultFileCount     = 10
	defaultIssueCount    = 3
	defaultEmailCount    = 5
	defaultLibraryName   = "Documents"
	defaultSecurityLevel = "Mixed"
)

type s3Request struct {
	Prompt         string               `json:"prompt"`
	BucketName     string               `json:"bucketName"`
	FileCount      *int                 `json:"fileCount"`
	AWSCredentials *s3store.Credentials `json:"awsCredentials"`
}

// handleS3Files writes generated team files into a bucket.
// POST /api/s3/create-files
func (s *Server) handleS3Files(w http.ResponseWriter, r *http.Request) {
	var req s3Request
	if !s.decode(w, r, &req) {
		return
	}
	creds := req.AWSCredentials
	if req.BucketName == "" || creds == nil || creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		s.writeFailure(w, domain.NewValidationError("Bucket name and AWS credentials are required"), "S3")
		return
	}
	if req.Prompt == "" {
		s.writeFailure(w, domain.NewValidationError("Prompt is required"), "S3")
		return
	}
	count, err := itemCount(req.FileCount, defaultFileCount)
	if err != nil {
		s.writeFailure(w, err, "S3")
		return
	}

	ctx := batchContext(r)
	dest, err := s.factories.S3(ctx, *creds, req.BucketName)
	if err != nil {
		s.writeFailure(w, err, "S3")
		return
	}
	result, err := s.runBatch(ctx, r, services.S3Plan(dest, req.Prompt, count, s.cfg.Delays.FilePacing), s.newRandom())
	if err != nil {
		s.writeFailure(w, err, "S3")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       result.Success,
		"filesCreated":  result.CreatedCount,
		"files":         receiptDetails(result.Created),
		"failedFiles":   result.Failed,
		"projectFolder": result.ContainerPath,
		"bucketName":    req.BucketName,
		"message":       fmt.Sprintf("Created %d files in S3 nested structure", result.CreatedCount),
	})
}

type issuesRequest struct {
	Prompt        string       `json:"prompt"`
	JiraConfig    *jira.Config `json:"jiraConfig"`
	IssueCount    *int         `json:"issueCount"`
	ProjectName   string       `json:"projectName"`
	ProjectKey    string       `json:"projectKey"`
	SecurityLevel string       `json:"securityLevel"`
}

// handleCreateIssues files generated issues, with comments, worklogs and
// attachments, into a Jira project.
// POST /api/create-issues
func (s *Server) handleCreateIssues(w http.ResponseWriter, r *http.Request) {
	var req issuesRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.JiraConfig == nil {
		s.writeFailure(w, domain.NewValidationError("jiraConfig is required"), "Jira")
		return
	}
	if err := req.JiraConfig.Validate(); err != nil {
		s.writeFailure(w, err, "Jira")
		return
	}
	projectKey := req.ProjectKey
	if projectKey == "" {
		projectKey = req.JiraConfig.ProjectKey
	}
	if projectKey == "" {
		s.writeFailure(w, domain.NewValidationError("projectKey is required"), "Jira")
		return
	}
	if req.Prompt == "" {
		s.writeFailure(w, domain.NewValidationError("Prompt is required"), "Jira")
		return
	}
	count, err := itemCount(req.IssueCount, defaultIssueCount)
	if err != nil {
		s.writeFailure(w, err, "Jira")
		return
	}
	level := req.SecurityLevel
	if level == "" {
		level = defaultSecurityLevel
	}

	opts := jira.Options{
		Prompt: req.Prompt,
		Settle: s.cfg.Delays.Settle,
		Pacing: s.cfg.Delays.Pacing,
	}
	if req.ProjectName != "" && req.ProjectKey != "" {
		opts.ProjectName = req.ProjectName
	}

	rnd := s.newRandom()
	tracker, err := s.factories.Jira(*req.JiraConfig, opts, rnd)
	if err != nil {
		s.writeFailure(w, err, "Jira")
		return
	}
	result, err := s.runBatch(batchContext(r), r, services.JiraPlan(tracker, req.Prompt, projectKey, level, count), rnd)
	if err != nil {
		s.writeFailure(w, err, "Jira")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      result.Success,
		"message":      fmt.Sprintf("Created %d issues successfully using issue type: %s", result.CreatedCount, tracker.IssueTypeName()),
		"issues":       receiptDetails(result.Created),
		"failedIssues": result.Failed,
	})
}

type tokenRequest struct {
	Prompt      string `json:"prompt"`
	AccessToken string `json:"accessToken"`
	FileCount   *int   `json:"fileCount"`
}

// handleOneDriveFiles writes generated team files into the user's OneDrive.
// POST /api/onedrive/create-files
func (s *Server) handleOneDriveFiles(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.AccessToken == "" {
		s.writeFailure(w, domain.NewValidationError("Access token is required"), "OneDrive")
		return
	}
	if req.Prompt == "" {
		s.writeFailure(w, domain.NewValidationError("Prompt is required"), "OneDrive")
		return
	}
	count, err := itemCount(req.FileCount, defaultFileCount)
	if err != nil {
		s.writeFailure(w, err, "OneDrive")
		return
	}

	ctx := batchContext(r)
	dest, err := s.factories.OneDrive(ctx, req.AccessToken)
	if err != nil {
		s.writeFailure(w, err, "OneDrive")
		return
	}
	result, err := s.runBatch(ctx, r, services.OneDrivePlan(dest, req.Prompt, count, s.cfg.Delays.FilePacing), s.newRandom())
	if err != nil {
		s.writeFailure(w, err, "OneDrive")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       result.Success,
		"filesCreated":  result.CreatedCount,
		"files":         receiptDetails(result.Created),
		"failedFiles":   result.Failed,
		"projectFolder": result.ContainerPath,
		"message":       fmt.Sprintf("Created %d files in nested structure", result.CreatedCount),
	})
}

// handleGDriveFiles builds a project folder tree in Google Drive and uploads
// generated files of every supported type into it.
// POST /api/upload-gdrive-files
func (s *Server) handleGDriveFiles(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.AccessToken == "" {
		s.writeFailure(w, domain.NewValidationError("Access token is required"), "Google Drive")
		return
	}
	if req.Prompt == "" {
		s.writeFailure(w, domain.NewValidationError("Prompt is required"), "Google Drive")
		return
	}
	count, err := itemCount(req.FileCount, defaultFileCount)
	if err != nil {
		s.writeFailure(w, err, "Google Drive")
		return
	}

	ctx := batchContext(r)
	dest, err := s.factories.GDrive(ctx, req.AccessToken)
	if err != nil {
		s.writeFailure(w, err, "Google Drive")
		return
	}
	result, err := s.runBatch(ctx, r, services.GDrivePlan(dest, req.Prompt, count, s.cfg.Delays.FilePacing), s.newRandom())
	if err != nil {
		s.writeFailure(w, err, "Google Drive")
		return
	}

	subfolders := make([]string, 0, len(services.GDriveCategories()))
	for _, cat := range services.GDriveCategories() {
		subfolders = append(subfolders, cat.Name)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     result.Success,
		"message":     fmt.Sprintf("Created organized folder structure with %d files", result.CreatedCount),
		"projectPath": result.ContainerPath,
		"files":       receiptDetails(result.Created),
		"failedFiles": result.Failed,
		"folderStructure": map[string]any{
			"main":       services.GDriveRootFolder,
			"project":    result.ProjectName,
			"subfolders": subfolders,
		},
	})
}

type sharePointRequest struct {
	Prompt            string `json:"prompt"`
	AccessToken       string `json:"accessToken"`
	SiteURL           string `json:"siteUrl"`
	LibraryName       string `json:"libraryName"`
	FileCount         *int   `json:"fileCount"`
	CreateFolders     bool   `json:"createFolders"`
	UpdateSiteContent bool   `json:"updateSiteContent"`
}

// handleSharePointFiles uploads generated files into a site library and
// optionally refreshes the site homepage.
// POST /api/sharepoint/create-files
func (s *Server) handleSharePointFiles(w http.ResponseWriter, r *http.Request) {
	var req sharePointRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.AccessToken == "" || req.SiteURL == "" {
		s.writeFailure(w, domain.NewValidationError("Access token and site URL are required"), "SharePoint")
		return
	}
	if req.Prompt == "" {
		s.writeFailure(w, domain.NewValidationError("Prompt is required"), "SharePoint")
		return
	}
	count, err := itemCount(req.FileCount, defaultFileCount)
	if err != nil {
		s.writeFailure(w, err, "SharePoint")
		return
	}
	library := req.LibraryName
	if library == "" {
		library = defaultLibraryName
	}

	ctx := batchContext(r)
	site, err := s.factories.SharePoint(ctx, req.AccessToken, req.SiteURL)
	if err != nil {
		s.writeFailure(w, err, "SharePoint")
		return
	}
	plan := services.SharePointPlan(site, req.Prompt, library, count, req.CreateFolders, s.cfg.Delays.FilePacing)
	result, err := s.runBatch(ctx, r, plan, s.newRandom())
	if err != nil {
		s.writeFailure(w, err, "SharePoint")
		return
	}

	var updates services.SiteUpdates
	if req.UpdateSiteContent {
		updates = s.siteUpdater.Update(ctx, site, req.Prompt, result.ProjectName, result.ContainerPath)
	}

	message := fmt.Sprintf("Created %d files in SharePoint", result.CreatedCount)
	if req.CreateFolders {
		message += " with nested folders"
	}
	if req.UpdateSiteContent {
		message += " and updated site content"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":         result.Success,
		"filesCreated":    result.CreatedCount,
		"files":           receiptDetails(result.Created),
		"failedFiles":     result.Failed,
		"projectFolder":   result.ContainerPath,
		"nestedStructure": req.CreateFolders,
		"siteUpdates":     updates,
		"message":         message,
	})
}

type gmailRequest struct {
	Prompt         string `json:"prompt"`
	AccessToken    string `json:"accessToken"`
	EmailCount     *int   `json:"emailCount"`
	RecipientEmail string `json:"recipientEmail"`
}

// handleGmailEmails sends generated emails, each with one generated attachment.
// POST /api/gmail/generate-emails
func (s *Server) handleGmailEmails(w http.ResponseWriter, r *http.Request) {
	var req gmailRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.AccessToken == "" || req.Prompt == "" {
		s.writeFailure(w, domain.NewValidationError("Access token and prompt are required"), "Gmail")
		return
	}
	count, err := itemCount(req.EmailCount, defaultEmailCount)
	if err != nil {
		s.writeFailure(w, err, "Gmail")
		return
	}
	recipient := gmail.DefaultRecipient
	if req.RecipientEmail != "" {
		addr, err := mail.ParseAddress(req.RecipientEmail)
		if err != nil {
			s.writeFailure(w, domain.NewValidationError("Invalid recipient email"), "Gmail")
			return
		}
		recipient = addr.Address
	}

	ctx := batchContext(r)
	dest, err := s.factories.Gmail(ctx, req.AccessToken, recipient)
	if err != nil {
		s.writeFailure(w, err, "Gmail")
		return
	}
	result, err := s.runBatch(ctx, r, services.GmailPlan(dest, req.Prompt, count, s.cfg.Delays.EmailPacing), s.newRandom())
	if err != nil {
		s.writeFailure(w, err, "Gmail")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       result.Success,
		"emailsCreated": result.CreatedCount,
		"emails":        receiptDetails(result.Created),
		"failedEmails":  result.Failed,
		"message":       fmt.Sprintf("Generated %d emails with unique subjects and attachments", result.CreatedCount),
	})
}
