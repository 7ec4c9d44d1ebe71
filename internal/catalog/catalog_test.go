package catalog

import (
	"testing"

	"github.com/arosling/stageside/internal/domain"
)

func TestNew_ValidatesDefaults(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	for _, service := range domain.AllServiceTypes {
		stages := c.Templates(service)
		if len(stages) != len(domain.StageOrder) {
			t.Fatalf("service %s has %d stages, expected %d", service, len(stages), len(domain.StageOrder))
		}
		if stages[0].DelayHours != 0 {
			t.Errorf("service %s first stage delay = %dh, expected 0", service, stages[0].DelayHours)
		}
		prev := -1
		for i, stage := range stages {
			if stage.Type != domain.StageOrder[i] {
				t.Errorf("service %s stage %d is %s, expected %s", service, i, stage.Type, domain.StageOrder[i])
			}
			if stage.DelayHours <= prev {
				t.Errorf("service %s stage %s delay %dh does not increase past %dh",
					service, stage.Type, stage.DelayHours, prev)
			}
			prev = stage.DelayHours
		}
	}
}

func TestTemplates_UnknownService(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if got := c.Templates(domain.ServiceType("catering")); got != nil {
		t.Errorf("expected nil for unknown service, got %d stages", len(got))
	}
}

func TestTemplates_ReturnsCopy(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	stages := c.Templates(domain.ServicePerformance)
	original := stages[0].Subject
	stages[0].Subject = "clobbered"

	if got := c.Templates(domain.ServicePerformance)[0].Subject; got != original {
		t.Errorf("catalog was mutated through a returned slice: %q", got)
	}
}

func TestStage(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	stage, ok := c.Stage(domain.ServiceCollaboration, domain.StageFollowUp3Days)
	if !ok {
		t.Fatal("expected to find follow_up_3days for collaboration")
	}
	if stage.Type != domain.StageFollowUp3Days {
		t.Errorf("stage type = %s", stage.Type)
	}

	if _, ok := c.Stage(domain.ServicePerformance, domain.EmailTemplateType("nonsense")); ok {
		t.Error("expected miss for unknown stage type")
	}
}

func TestValidate_RejectsBadCatalogs(t *testing.T) {
	base := func() map[domain.ServiceType][]StageTemplate { return defaultTemplates() }

	tests := []struct {
		name   string
		mutate func(map[domain.ServiceType][]StageTemplate)
	}{
		{"missing service", func(m map[domain.ServiceType][]StageTemplate) {
			delete(m, domain.ServiceTeaching)
		}},
		{"missing stage", func(m map[domain.ServiceType][]StageTemplate) {
			m[domain.ServicePerformance] = m[domain.ServicePerformance][:4]
		}},
		{"nonzero first delay", func(m map[domain.ServiceType][]StageTemplate) {
			m[domain.ServicePerformance][0].DelayHours = 2
		}},
		{"non-increasing delays", func(m map[domain.ServiceType][]StageTemplate) {
			m[domain.ServicePerformance][2].DelayHours = m[domain.ServicePerformance][1].DelayHours
		}},
		{"unknown placeholder", func(m map[domain.ServiceType][]StageTemplate) {
			m[domain.ServicePerformance][1].Subject = "Hi {{nmae}}"
		}},
		{"empty body", func(m map[domain.ServiceType][]StageTemplate) {
			m[domain.ServiceCollaboration][3].TextContent = "  "
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := base()
			tt.mutate(m)
			c := &Catalog{byService: m}
			if err := c.validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestRender(t *testing.T) {
	vars := map[string]string{
		"name":    "Emma",
		"service": "performance",
	}

	got := Render("Hi {{name}}, thanks for your {{service}} inquiry.", vars)
	want := "Hi Emma, thanks for your performance inquiry."
	if got != want {
		t.Errorf("Render() = %q, expected %q", got, want)
	}

	// Tokens with no binding are left verbatim.
	if got := Render("{{email}}", vars); got != "{{email}}" {
		t.Errorf("unbound token rendered as %q", got)
	}
}
