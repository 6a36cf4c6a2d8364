package graph

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/manthysbr/connectorseed/internal/core/domain"
)

const homePageName = "Home.aspx"

// Site is a SharePoint site's default document library. It implements
// ports.SiteLibrary.
type Site struct {
	*Drive
	id      string
	siteURL string
}

// ResolveSite looks up the site behind a URL such as
// https://contoso.sharepoint.com/sites/marketing.
func ResolveSite(ctx context.Context, client *Client, siteURL string) (*Site, error) {
	u, err := url.Parse(siteURL)
	if err != nil || u.Host == "" {
		return nil, domain.NewValidationError("Invalid site URL: %s", siteURL)
	}

	path := "/sites/" + u.Host
	if p := strings.TrimRight(u.Path, "/"); p != "" {
		path += ":" + (&url.URL{Path: p}).EscapedPath()
	}

	var site struct {
		ID string `json:"id"`
	}
	if err := client.doJSON(ctx, http.MethodGet, path, nil, &site); err != nil {
		return nil, err
	}
	if site.ID == "" {
		return nil, fmt.Errorf("site %s returned no id", siteURL)
	}

	drivePath := "/sites/" + url.PathEscape(site.ID) + "/drive"
	return &Site{
		Drive:   &Drive{client: client, drivePath: drivePath},
		id:      site.ID,
		siteURL: strings.TrimRight(siteURL, "/"),
	}, nil
}

func (s *Site) SiteURL() string {
	return s.siteURL
}

// UpdateHomepage retitles Home.aspx. It reports false when the site has none.
func (s *Site) UpdateHomepage(ctx context.Context, title, description string) (bool, error) {
	pagesPath := "/sites/" + url.PathEscape(s.id) + "/pages"

	var pages struct {
		Value []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"value"`
	}
	if err := s.client.doJSON(ctx, http.MethodGet, pagesPath, nil, &pages); err != nil {
		return false, err
	}

	for _, page := range pages.Value {
		if page.Name != homePageName {
			continue
		}
		err := s.client.doJSON(ctx, http.MethodPatch, pagesPath+"/"+url.PathEscape(page.ID), map[string]string{
			"title":       title,
			"description": description,
		}, nil)
		if err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}
