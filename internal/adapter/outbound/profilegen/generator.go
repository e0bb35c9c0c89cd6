package profilegen

import (
	"fmt"
	"log/slog"

	"github.com/markweb/markweb-mcp/internal/domain"
	"github.com/markweb/markweb-mcp/internal/usecase"
)

// ToolGenerator implements usecase.ToolGenerator by expanding a service
// profile into the tool catalog. The mapping is a declarative table so the
// set of listed names and the set of invokable names cannot drift apart.
type ToolGenerator struct {
	logger *slog.Logger
}

// NewToolGenerator creates a new profile-driven ToolGenerator.
func NewToolGenerator(logger *slog.Logger) *ToolGenerator {
	return &ToolGenerator{
		logger: logger.With("component", "profile_generator"),
	}
}

// toolSpec is one row of the expansion table.
type toolSpec struct {
	suffix      string
	description string
	field       string
	fieldDesc   string
	details     usecase.InvocationDetails
}

// variantSpecs keys the optional variant tools. Descriptions speak to the
// LLM that will pick between them.
var variantSpecs = map[domain.Variant]toolSpec{
	domain.VariantRender: {
		suffix:      "render-url",
		description: "Fetch a URL after rendering it in a headless browser, then return its content as Markdown. Use for JavaScript-heavy pages.",
		field:       "url",
		fieldDesc:   "The URL to render and fetch.",
	},
	domain.VariantRaw: {
		suffix:      "raw-url",
		description: "Fetch a URL and return the raw page content without Markdown conversion.",
		field:       "url",
		fieldDesc:   "The URL to fetch.",
	},
	domain.VariantNoCache: {
		suffix:      "nocache-url",
		description: "Fetch a URL bypassing the proxy cache, returning fresh content as Markdown.",
		field:       "url",
		fieldDesc:   "The URL to fetch.",
	},
	domain.VariantScreenshot: {
		suffix:      "screenshot-url",
		description: "Capture a screenshot of a URL and return a link to the image.",
		field:       "url",
		fieldDesc:   "The URL to capture.",
	},
}

// Generate expands the profile into tools and matching invocation details.
// The fetch and search tools come first, then the enabled variants in the
// profile's declared order.
func (g *ToolGenerator) Generate(p domain.ServiceProfile) ([]domain.Tool, []usecase.InvocationDetails, error) {
	log := g.logger.With(slog.String("profile", p.Name))

	specs := []toolSpec{
		{
			suffix:      "fetch-url",
			description: "Fetch a URL and return its content as clean Markdown, bypassing bot detection. Already-encoded URLs are passed through untouched.",
			field:       "url",
			fieldDesc:   "The URL to fetch.",
			details:     usecase.InvocationDetails{Kind: usecase.InvocationFetch, RequiredField: "url"},
		},
		{
			suffix:      "search-web",
			description: "Search the web and return matching pages as Markdown.",
			field:       "query",
			fieldDesc:   "The search query.",
			details: usecase.InvocationDetails{
				Kind:          usecase.InvocationSearch,
				RequiredField: "query",
				Headers:       map[string]string{"Accept": "text/markdown"},
			},
		},
	}

	for _, v := range p.Variants {
		spec, ok := variantSpecs[v]
		if !ok {
			log.Error("Profile enables an unknown variant.", slog.String("variant", string(v)))
			return nil, nil, fmt.Errorf("profile %s enables unknown variant %q", p.Name, v)
		}
		spec.details = usecase.InvocationDetails{
			Kind:          usecase.InvocationVariant,
			Variant:       v,
			RequiredField: spec.field,
		}
		specs = append(specs, spec)
	}

	tools := make([]domain.Tool, 0, len(specs))
	details := make([]usecase.InvocationDetails, 0, len(specs))
	for _, spec := range specs {
		tools = append(tools, domain.Tool{
			Name:        p.NamePrefix + "-" + spec.suffix,
			Description: spec.description,
			InputSchema: domain.JSONSchemaProps{
				Type: "object",
				Properties: map[string]domain.JSONSchemaProps{
					spec.field: {Type: "string", Description: spec.fieldDesc},
				},
				Required: []string{spec.field},
			},
		})
		details = append(details, spec.details)
	}

	log.Debug("Generated tool catalog.", slog.Int("count", len(tools)))
	return tools, details, nil
}
