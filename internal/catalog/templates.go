package catalog

import "github.com/arosling/stageside/internal/domain"

// Stage delays from submission, in hours.
const (
	delayImmediate = 0
	delay24h       = 24
	delay3Days     = 72
	delay1Week     = 168
	delayFinal     = 336
)

// defaultTemplates returns the built-in sequence definitions for every
// service. Adding a service or a stage is a data change here plus a stage
// constant; nothing else in the engine needs to know.
func defaultTemplates() map[domain.ServiceType][]StageTemplate {
	return map[domain.ServiceType][]StageTemplate{
		domain.ServicePerformance: {
			{
				Type:       domain.StageImmediateConfirmation,
				Subject:    "Thanks for your booking inquiry, {{name}}!",
				DelayHours: delayImmediate,
				Tags:       []string{"performance", "confirmation"},
				TextContent: `Hi {{name}},

Thanks for reaching out about a live performance. I received your inquiry and will get back to you personally within one business day with availability and details.

In the meantime, you can listen to recent sets and see upcoming shows on the site.

Talk soon,
Aria`,
				HTMLContent: `<p>Hi {{name}},</p>
<p>Thanks for reaching out about a live performance. I received your inquiry and will get back to you personally within one business day with availability and details.</p>
<p>In the meantime, you can listen to recent sets and see upcoming shows on the site.</p>
<p>Talk soon,<br>Aria</p>`,
			},
			{
				Type:       domain.StageFollowUp24h,
				Subject:    "A few details that help me quote your event",
				DelayHours: delay24h,
				Tags:       []string{"performance", "follow-up"},
				TextContent: `Hi {{name}},

While I put together options for your event, a couple of things that always help: the venue's size and whether sound equipment is provided, and whether you want background music or a featured set.

Reply to this email with anything you know and I'll fold it into the quote.

Aria`,
				HTMLContent: `<p>Hi {{name}},</p>
<p>While I put together options for your event, a couple of things that always help: the venue's size and whether sound equipment is provided, and whether you want background music or a featured set.</p>
<p>Reply to this email with anything you know and I'll fold it into the quote.</p>
<p>Aria</p>`,
			},
			{
				Type:       domain.StageFollowUp3Days,
				Subject:    "How other events like yours came together",
				DelayHours: delay3Days,
				Tags:       []string{"performance", "social-proof"},
				TextContent: `Hi {{name}},

I pulled together a few examples of events similar to yours, with the lineup we used and how the evening was structured. You'll find them on the performances page.

If a call is easier than email, grab a slot on the booking page and we'll talk it through.

Aria`,
				HTMLContent: `<p>Hi {{name}},</p>
<p>I pulled together a few examples of events similar to yours, with the lineup we used and how the evening was structured. You'll find them on the performances page.</p>
<p>If a call is easier than email, grab a slot on the booking page and we'll talk it through.</p>
<p>Aria</p>`,
			},
			{
				Type:       domain.StageFollowUp1Week,
				Subject:    "Still planning? Dates are filling up",
				DelayHours: delay1Week,
				Tags:       []string{"performance", "urgency"},
				TextContent: `Hi {{name}},

Just a heads up that my calendar for the coming months is filling in. If your date is still open on my end I'm happy to pencil you in while you finalize details — no commitment needed yet.

Aria`,
				HTMLContent: `<p>Hi {{name}},</p>
<p>Just a heads up that my calendar for the coming months is filling in. If your date is still open on my end I'm happy to pencil you in while you finalize details &mdash; no commitment needed yet.</p>
<p>Aria</p>`,
			},
			{
				Type:       domain.StageFinalFollowUp,
				Subject:    "Closing the loop on your {{service}} inquiry",
				DelayHours: delayFinal,
				Tags:       []string{"performance", "final"},
				TextContent: `Hi {{name}},

I don't want to clutter your inbox, so this is my last note about your inquiry. If the timing wasn't right, no worries at all — you can reach me at this address whenever plans firm up.

Wishing you a great event either way,
Aria`,
				HTMLContent: `<p>Hi {{name}},</p>
<p>I don't want to clutter your inbox, so this is my last note about your inquiry. If the timing wasn't right, no worries at all &mdash; you can reach me at this address whenever plans firm up.</p>
<p>Wishing you a great event either way,<br>Aria</p>`,
			},
		},

		domain.ServiceTeaching: {
			{
				Type:       domain.StageImmediateConfirmation,
				Subject:    "Welcome, {{name}} — about lessons",
				DelayHours: delayImmediate,
				Tags:       []string{"teaching", "confirmation"},
				TextContent: `Hi {{name}},

Thanks for your interest in lessons! I got your note at {{email}} and will reply within a day with current openings and how the first session works.

Every new student starts with a relaxed intro lesson — no preparation needed.

Aria`,
				HTMLContent: `<p>Hi {{name}},</p>
<p>Thanks for your interest in lessons! I got your note at {{email}} and will reply within a day with current openings and how the first session works.</p>
<p>Every new student starts with a relaxed intro lesson &mdash; no preparation needed.</p>
<p>Aria</p>`,
			},
			{
				Type:       domain.StageFollowUp24h,
				Subject:    "What to expect from your first lesson",
				DelayHours: delay24h,
				Tags:       []string{"teaching", "follow-up"},
				TextContent: `Hi {{name}},

A quick outline of how I teach: the first lesson is about where you are and where you want to go. From there we build a plan around the music you actually want to play.

Lessons run weekly or biweekly, in person or over video. Reply with what suits you.

Aria`,
				HTMLContent: `<p>Hi {{name}},</p>
<p>A quick outline of how I teach: the first lesson is about where you are and where you want to go. From there we build a plan around the music you actually want to play.</p>
<p>Lessons run weekly or biweekly, in person or over video. Reply with what suits you.</p>
<p>Aria</p>`,
			},
			{
				Type:       domain.StageFollowUp3Days,
				Subject:    "Hear what students have achieved",
				DelayHours: delay3Days,
				Tags:       []string{"teaching", "social-proof"},
				TextContent: `Hi {{name}},

A few of my students recently recorded pieces they'd worked on for a term — from first-year beginners to returning players. Their recordings are up on the lessons page and give a good feel for the pace.

Aria`,
				HTMLContent: `<p>Hi {{name}},</p>
<p>A few of my students recently recorded pieces they'd worked on for a term &mdash; from first-year beginners to returning players. Their recordings are up on the lessons page and give a good feel for the pace.</p>
<p>Aria</p>`,
			},
			{
				Type:       domain.StageFollowUp1Week,
				Subject:    "A spot is open this month",
				DelayHours: delay1Week,
				Tags:       []string{"teaching", "urgency"},
				TextContent: `Hi {{name}},

I keep a small roster so everyone gets proper attention, and a spot has opened up this month. If you'd like it, reply and we'll set up your intro lesson.

Aria`,
				HTMLContent: `<p>Hi {{name}},</p>
<p>I keep a small roster so everyone gets proper attention, and a spot has opened up this month. If you'd like it, reply and we'll set up your intro lesson.</p>
<p>Aria</p>`,
			},
			{
				Type:       domain.StageFinalFollowUp,
				Subject:    "Last note about {{service}}",
				DelayHours: delayFinal,
				Tags:       []string{"teaching", "final"},
				TextContent: `Hi {{name}},

This is my last email about lessons — I know timing matters with these things. Whenever you're ready to start, just reply to this address and I'll find you a slot.

Keep playing,
Aria`,
				HTMLContent: `<p>Hi {{name}},</p>
<p>This is my last email about lessons &mdash; I know timing matters with these things. Whenever you're ready to start, just reply to this address and I'll find you a slot.</p>
<p>Keep playing,<br>Aria</p>`,
			},
		},

		domain.ServiceCollaboration: {
			{
				Type:       domain.StageImmediateConfirmation,
				Subject:    "Got your project inquiry, {{name}}",
				DelayHours: delayImmediate,
				Tags:       []string{"collaboration", "confirmation"},
				TextContent: `Hi {{name}},

Thanks for getting in touch about working together. I read every project inquiry personally and will reply within a business day with thoughts and next steps.

If you have demos or references, feel free to reply with links — they help a lot.

Aria`,
				HTMLContent: `<p>Hi {{name}},</p>
<p>Thanks for getting in touch about working together. I read every project inquiry personally and will reply within a business day with thoughts and next steps.</p>
<p>If you have demos or references, feel free to reply with links &mdash; they help a lot.</p>
<p>Aria</p>`,
			},
			{
				Type:       domain.StageFollowUp24h,
				Subject:    "How I usually structure collaborations",
				DelayHours: delay24h,
				Tags:       []string{"collaboration", "follow-up"},
				TextContent: `Hi {{name}},

Most projects start with a short call to align on sound and scope, then a first deliverable within two weeks. Recording, arranging and production each have their own flow — I'll tailor it once I know more about yours.

Aria`,
				HTMLContent: `<p>Hi {{name}},</p>
<p>Most projects start with a short call to align on sound and scope, then a first deliverable within two weeks. Recording, arranging and production each have their own flow &mdash; I'll tailor it once I know more about yours.</p>
<p>Aria</p>`,
			},
			{
				Type:       domain.StageFollowUp3Days,
				Subject:    "Recent projects you might like",
				DelayHours: delay3Days,
				Tags:       []string{"collaboration", "social-proof"},
				TextContent: `Hi {{name}},

I put a few recent collaborations on the studio page — writing credits, session work and full productions. Worth a listen to see if the aesthetic fits what you're after.

Aria`,
				HTMLContent: `<p>Hi {{name}},</p>
<p>I put a few recent collaborations on the studio page &mdash; writing credits, session work and full productions. Worth a listen to see if the aesthetic fits what you're after.</p>
<p>Aria</p>`,
			},
			{
				Type:       domain.StageFollowUp1Week,
				Subject:    "Shall we find a time to talk?",
				DelayHours: delay1Week,
				Tags:       []string{"collaboration", "urgency"},
				TextContent: `Hi {{name}},

Projects tend to move once we've had a first conversation. If yours is still alive, pick any slot on the booking page and we'll talk scope and budget — fifteen minutes is usually enough.

Aria`,
				HTMLContent: `<p>Hi {{name}},</p>
<p>Projects tend to move once we've had a first conversation. If yours is still alive, pick any slot on the booking page and we'll talk scope and budget &mdash; fifteen minutes is usually enough.</p>
<p>Aria</p>`,
			},
			{
				Type:       domain.StageFinalFollowUp,
				Subject:    "Closing out your {{service}} inquiry",
				DelayHours: delayFinal,
				Tags:       []string{"collaboration", "final"},
				TextContent: `Hi {{name}},

This is my last follow-up on your project inquiry. Creative timelines shift — when yours comes back around, this address reaches me directly.

Good luck with the music,
Aria`,
				HTMLContent: `<p>Hi {{name}},</p>
<p>This is my last follow-up on your project inquiry. Creative timelines shift &mdash; when yours comes back around, this address reaches me directly.</p>
<p>Good luck with the music,<br>Aria</p>`,
			},
		},

		domain.ServiceGeneral: {
			{
				Type:       domain.StageImmediateConfirmation,
				Subject:    "Thanks for reaching out, {{name}}",
				DelayHours: delayImmediate,
				Tags:       []string{"general", "confirmation"},
				TextContent: `Hi {{name}},

Thanks for your message — it landed safely and I'll reply personally within a business day.

Aria`,
				HTMLContent: `<p>Hi {{name}},</p>
<p>Thanks for your message &mdash; it landed safely and I'll reply personally within a business day.</p>
<p>Aria</p>`,
			},
			{
				Type:       domain.StageFollowUp24h,
				Subject:    "While you wait — around the site",
				DelayHours: delay24h,
				Tags:       []string{"general", "follow-up"},
				TextContent: `Hi {{name}},

In case it's useful while I get back to you: performances, lessons and studio collaborations each have their own page with examples and pricing pointers.

Aria`,
				HTMLContent: `<p>Hi {{name}},</p>
<p>In case it's useful while I get back to you: performances, lessons and studio collaborations each have their own page with examples and pricing pointers.</p>
<p>Aria</p>`,
			},
			{
				Type:       domain.StageFollowUp3Days,
				Subject:    "Did my reply reach you?",
				DelayHours: delay3Days,
				Tags:       []string{"general", "follow-up"},
				TextContent: `Hi {{name}},

Checking in to make sure my reply didn't end up in spam. If you haven't seen it, a note to this address reaches me directly.

Aria`,
				HTMLContent: `<p>Hi {{name}},</p>
<p>Checking in to make sure my reply didn't end up in spam. If you haven't seen it, a note to this address reaches me directly.</p>
<p>Aria</p>`,
			},
			{
				Type:       domain.StageFollowUp1Week,
				Subject:    "Anything else I can help with?",
				DelayHours: delay1Week,
				Tags:       []string{"general", "follow-up"},
				TextContent: `Hi {{name}},

Just making sure your question didn't fall through the cracks. If it's been answered, ignore me; if not, reply here and I'll sort it out.

Aria`,
				HTMLContent: `<p>Hi {{name}},</p>
<p>Just making sure your question didn't fall through the cracks. If it's been answered, ignore me; if not, reply here and I'll sort it out.</p>
<p>Aria</p>`,
			},
			{
				Type:       domain.StageFinalFollowUp,
				Subject:    "Signing off on your {{service}} message",
				DelayHours: delayFinal,
				Tags:       []string{"general", "final"},
				TextContent: `Hi {{name}},

Last note from me on this thread. Thanks again for reaching out — the door's always open at this address.

Aria`,
				HTMLContent: `<p>Hi {{name}},</p>
<p>Last note from me on this thread. Thanks again for reaching out &mdash; the door's always open at this address.</p>
<p>Aria</p>`,
			},
		},
	}
}
