package agent

import (
	"google.golang.org/genai"
)

const model = "gemini-2.5-pro"

func instruction(s string) *genai.Content {
	return &genai.Content{Parts: []*genai.Part{{Text: s}}}
}

// creates the facilitator
func newFacilitator(experts ...*Expert) *Expert {
	return &Expert{
		Name:      "Facilitator",
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(experts)},
			},
			SystemInstruction: instruction(`
			As a facilitator you are in charge of the conversation and solving the user's request.

			Learn about the expert's skill that you can get from the Tools to ask them questions.
			They are at your service and 100% dedicated to you, they keep context of your previous questions.

			The user is a private investor. They run research reports on a list of securities: momentum scores,
			drawdowns, simulated outcomes, dividend screens. They come to you to understand these reports and
			to put them in perspective with the news.

			Devise a plan of questions to ask to each expert and come up with the best response to the user's request.
			Never present a figure that an expert did not read in a report. You give no order to trade, you help
			the user think.
		`),
		},
		Library: NewLibrary(experts),
	}
}

// NewTrader returns an expert grounded in Google Search.
func NewTrader() *Expert {
	return &Expert{
		Name: "Trader",
		Description: `This is an expert trader,
		Very well aware of all the financial products and institutions,
		about the latest news about the different funds or companies.
		Ask the Trader whenever you need recent or grounding information.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			SystemInstruction: instruction(`
			You are a expert in Trading, you can search and find about anything related to
			financial institutions, companies, markets, funds etc. You Leverage Google Search to
			ground your assertions in a solid truth.
			You can get the latests news too, and you know how to relate them to the user's request.
			`),
		},
	}
}

// NewAnalyst returns the expert who reads the reports saved in dir and knows the methodology
// behind them.
func NewAnalyst(dir string) *Expert {
	lib := []Function{Reports(dir), Methodology}

	return &Expert{
		Name: "Analyst",
		Description: `This is the Analyst. They read the research reports the user saved: allocations,
		top-N rankings, simulations, correlations, dividend screens and holding states.
		They know exactly how every figure is computed. Ask the Analyst about the user's securities,
		the figures of a report, or what a metric means.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: instruction(`
			You are a quantitative analyst in charge of the user's research reports.
			Use the Reports tool to list the saved reports and read the ones relevant to the question,
			the most recent first. Use the Methodology tool to explain how a figure is computed.

			Quote figures exactly as they are written in the reports, with the report name and date.
			When no report answers the question, say so and name the prs command that would produce it.
			`),
		},
		Library: NewLibrary(lib),
	}
}
