package deck

import (
	"github.com/slidex/slidex/pkg/llm"
)

// AddSlideArgs are the arguments the model supplies when emitting a slide.
type AddSlideArgs struct {
	HTML       string `json:"html"`
	SlideIndex int    `json:"slideIndex"`
	Title      string `json:"title"`
}

// UpdateTodoArgs mark one checklist item complete.
type UpdateTodoArgs struct {
	SlideIndex int `json:"slideIndex"`
}

// GeneratePresentationArgs set up a generation run from a chat turn.
type GeneratePresentationArgs struct {
	Title   string   `json:"title"`
	Outline Outline  `json:"outline"`
	Files   []string `json:"files,omitempty"`
}

// Tools the generation agent answers through.
var (
	AddSlideTool = llm.MustNewFuncTool[AddSlideArgs]("add_slide",
		"Add a single rendered HTML slide to the presentation at the given index.")
	UpdateTodoTool = llm.MustNewFuncTool[UpdateTodoArgs]("update_todo",
		"Mark the checklist item for the given slide index as completed.")
)

// GeneratePresentationTool is offered during the planning chat. The model
// calls it once the outline is agreed, handing back the structured plan.
var GeneratePresentationTool = llm.MustNewFuncTool[GeneratePresentationArgs]("generate_presentation",
	"Start generating the presentation from the agreed title and outline.")
