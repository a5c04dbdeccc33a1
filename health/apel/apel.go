// Package apel checks the APEL accounting status pages published by the
// GOC accounting portal for a grid site.
//
// The publication page shows whether the site's accounting records are
// published regularly, the synchronisation page whether the published
// record counts match the local ones month by month.
package apel

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/go-resty/resty/v2"
	pkgErrors "github.com/pkg/errors"
	"golang.org/x/net/html"
)

const (
	DefaultBaseURL = "http://goc-accounting.grid-support.ac.uk/rss"
	DefaultTimeout = 30 * time.Second

	// MaxDaysAgo is the age in days at which the latest record is no
	// longer considered up to date.
	MaxDaysAgo = 3

	PublicationColumn     = "Publication  Status"
	SynchronisationColumn = "Synchronisation  Status"

	publicationPage     = "%s_Pub.html"
	synchronisationPage = "%s_Sync.html"
)

// Error variables related to Checker.
var (
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
	ErrNoTable          = errors.New("page contains no accounting table")
	ErrColumnNotFound   = errors.New("column not found")
	ErrNoDaysAgo        = errors.New("status contains no age")
)

var daysAgoPattern = regexp.MustCompile(`last (?:published|sync(?:ed)?) (\d+) days? ago`)

// Record is a data row of an accounting table, keyed by column header.
type Record map[string]string

// Result is the outcome of a check.
type Result struct {
	// OK is true if the latest status is OK and younger than MaxDaysAgo
	// days. For synchronisation checks all rows must be OK as well.
	OK bool
	// Status is the latest status text, e.g.
	// "OK [ last published 2 days ago: 2021-02-26 ]".
	Status  string
	DaysAgo int
	// Failed lists the rows whose status is not OK.
	Failed []Record
}

type Config struct {
	// BaseURL of the accounting pages. Defaults to DefaultBaseURL.
	BaseURL string
	// Timeout of page requests. Defaults to DefaultTimeout.
	Timeout time.Duration

	Logger log.Interface
}

// Checker fetches and evaluates the accounting pages.
type Checker struct {
	baseURL string
	http    *resty.Client

	fieldLogger log.Interface
}

func New(config *Config) *Checker {
	if config == nil {
		config = &Config{}
	}

	c := &Checker{
		baseURL: strings.TrimSuffix(config.BaseURL, "/"),
		http:    resty.New(),
	}
	if len(c.baseURL) == 0 {
		c.baseURL = DefaultBaseURL
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c.http.SetTimeout(timeout)

	logger := config.Logger
	if logger == nil {
		logger = log.Log
	}
	c.fieldLogger = logger.WithFields(log.Fields{
		"package":   "apel",
		"component": "Checker",
	})

	return c
}

// CheckPublication evaluates the latest row of the publication page of
// site.
func (c *Checker) CheckPublication(ctx context.Context, site string) (*Result, error) {
	records, err := c.fetch(ctx, fmt.Sprintf(publicationPage, site))
	if err != nil {
		return nil, err
	}

	result, err := evaluate(records, PublicationColumn)
	if err != nil {
		return nil, pkgErrors.Wrapf(err, "CheckPublication: site %s", site)
	}
	// Only the latest publication matters.
	result.Failed = nil

	c.fieldLogger.WithFields(log.Fields{
		"site":   site,
		"ok":     result.OK,
		"status": result.Status,
	}).Debug("Checked publication")

	return result, nil
}

// CheckSync evaluates the synchronisation page of site. The check fails if
// the latest row is outdated or any row is not OK.
func (c *Checker) CheckSync(ctx context.Context, site string) (*Result, error) {
	records, err := c.fetch(ctx, fmt.Sprintf(synchronisationPage, site))
	if err != nil {
		return nil, err
	}

	result, err := evaluate(records, SynchronisationColumn)
	if err != nil {
		return nil, pkgErrors.Wrapf(err, "CheckSync: site %s", site)
	}
	result.OK = result.OK && len(result.Failed) == 0

	c.fieldLogger.WithFields(log.Fields{
		"site":   site,
		"ok":     result.OK,
		"status": result.Status,
		"failed": len(result.Failed),
	}).Debug("Checked synchronisation")

	return result, nil
}

func evaluate(records []Record, column string) (*Result, error) {
	if len(records) == 0 {
		return nil, ErrNoTable
	}

	status, ok := records[0][column]
	if !ok {
		return nil, pkgErrors.Wrapf(ErrColumnNotFound, "column %q", column)
	}

	match := daysAgoPattern.FindStringSubmatch(status)
	if match == nil {
		return nil, pkgErrors.Wrapf(ErrNoDaysAgo, "status %q", status)
	}
	daysAgo, err := strconv.Atoi(match[1])
	if err != nil {
		return nil, pkgErrors.Wrapf(ErrNoDaysAgo, "status %q", status)
	}

	result := &Result{
		OK:      strings.Contains(status, "OK") && daysAgo < MaxDaysAgo,
		Status:  status,
		DaysAgo: daysAgo,
	}
	for _, record := range records {
		if !strings.Contains(record[column], "OK") {
			result.Failed = append(result.Failed, record)
		}
	}

	return result, nil
}

func (c *Checker) fetch(ctx context.Context, page string) ([]Record, error) {
	url := c.baseURL + "/" + page

	resp, err := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return nil, pkgErrors.Wrapf(err, "fetch %s", url)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != 200 {
		return nil, pkgErrors.Wrapf(ErrUnexpectedStatus, "fetch %s: HTTP status %d", url, resp.StatusCode())
	}

	doc, err := html.Parse(body)
	if err != nil {
		return nil, pkgErrors.Wrapf(err, "fetch %s: parse html", url)
	}

	records, err := parseTable(doc)
	if err != nil {
		return nil, pkgErrors.Wrapf(err, "fetch %s", url)
	}

	return records, nil
}

// parseTable reads the first table of doc. The first row holds the title of
// the table, the second the column headers, all following rows are data.
func parseTable(doc *html.Node) ([]Record, error) {
	table := findElement(doc, "table")
	if table == nil {
		return nil, ErrNoTable
	}

	rows := findAllElements(table, "tr")
	if len(rows) < 2 {
		return nil, ErrNoTable
	}

	var header []string
	for _, cell := range findAllElements(rows[1], "th") {
		header = append(header, textContent(cell))
	}

	records := make([]Record, 0, len(rows)-2)
	for _, row := range rows[2:] {
		record := make(Record, len(header))
		for ind, cell := range findAllElements(row, "td") {
			if ind >= len(header) {
				break
			}
			record[header[ind]] = textContent(cell)
		}
		records = append(records, record)
	}

	return records, nil
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findElement(child, tag); found != nil {
			return found
		}
	}
	return nil
}

func findAllElements(n *html.Node, tag string) []*html.Node {
	var found []*html.Node

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == html.ElementNode && child.Data == tag {
				found = append(found, child)
				continue
			}
			walk(child)
		}
	}
	walk(n)

	return found
}

func textContent(n *html.Node) string {
	var b strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)

	return strings.TrimSpace(b.String())
}
