package notion

import (
	"taskpilot/internal/task"
)

// Notion wire shapes. Property trees are heterogeneous per property type:
// {title:[...]}, {select:{name}}, {date:{start}}, {unique_id:{prefix,number}}.
// They are mapped to task.Task here and nowhere else.

type page struct {
	ID         string     `json:"id"`
	Archived   bool       `json:"archived"`
	Properties properties `json:"properties"`
}

type properties struct {
	Name        *titleProperty    `json:"Name,omitempty"`
	Status      *selectProperty   `json:"Status,omitempty"`
	Priority    *selectProperty   `json:"Priority,omitempty"`
	DueDate     *dateProperty     `json:"Due Date,omitempty"`
	Description *richTextProperty `json:"Description,omitempty"`
	UniqueID    *uniqueIDProperty `json:"ID,omitempty"`
}

type titleProperty struct {
	Title []richText `json:"title"`
}

type richTextProperty struct {
	RichText []richText `json:"rich_text"`
}

type richText struct {
	Text      *textContent `json:"text,omitempty"`
	PlainText string       `json:"plain_text,omitempty"`
}

type textContent struct {
	Content string `json:"content"`
}

type selectProperty struct {
	Select *selectOption `json:"select"`
}

type selectOption struct {
	Name string `json:"name"`
}

type dateProperty struct {
	// Nil marshals to an explicit null, which is how a due date is cleared.
	Date *dateValue `json:"date"`
}

type dateValue struct {
	Start string `json:"start"`
}

type uniqueIDProperty struct {
	UniqueID uniqueID `json:"unique_id"`
}

type uniqueID struct {
	Prefix *string `json:"prefix"`
	Number int     `json:"number"`
}

type parent struct {
	DatabaseID string `json:"database_id"`
}

type createRequest struct {
	Parent     parent         `json:"parent"`
	Properties map[string]any `json:"properties"`
}

type updateRequest struct {
	Properties map[string]any `json:"properties,omitempty"`
	Archived   *bool          `json:"archived,omitempty"`
}

type queryRequest struct {
	Filter *propertyFilter `json:"filter,omitempty"`
}

type propertyFilter struct {
	Property string          `json:"property"`
	Select   *selectFilter   `json:"select,omitempty"`
	Title    *textFilter     `json:"title,omitempty"`
	UniqueID *uniqueIDFilter `json:"unique_id,omitempty"`
}

type selectFilter struct {
	DoesNotEqual string `json:"does_not_equal,omitempty"`
}

type textFilter struct {
	Contains string `json:"contains,omitempty"`
}

type uniqueIDFilter struct {
	Equals int `json:"equals"`
}

type queryResponse struct {
	Results []page `json:"results"`
}

// updateProperties builds the sparse property patch for an update. Only keys
// present in fields appear; ClearDueDate produces {"date": null}.
func updateProperties(f task.Fields) map[string]any {
	props := map[string]any{}
	if f.Title != nil {
		props["Name"] = titleProperty{Title: []richText{{Text: &textContent{Content: *f.Title}}}}
	}
	if f.Status != nil {
		props["Status"] = selectProperty{Select: &selectOption{Name: string(*f.Status)}}
	}
	if f.Priority != nil {
		props["Priority"] = selectProperty{Select: &selectOption{Name: string(*f.Priority)}}
	}
	switch {
	case f.DueDate != nil:
		props["Due Date"] = dateProperty{Date: &dateValue{Start: f.DueDate.String()}}
	case f.ClearDueDate:
		props["Due Date"] = dateProperty{}
	}
	if f.Description != nil {
		props["Description"] = richTextProperty{RichText: []richText{{Text: &textContent{Content: *f.Description}}}}
	}
	return props
}

func richTextContent(parts []richText) string {
	if len(parts) == 0 {
		return ""
	}
	if parts[0].Text != nil {
		return parts[0].Text.Content
	}
	return parts[0].PlainText
}

// pageToTask normalizes one page into the canonical Task. Missing properties
// map to zero values; an unparseable due date is dropped rather than carried
// as an invalid Date.
func pageToTask(p *page) *task.Task {
	t := &task.Task{
		ID:       p.ID,
		Archived: p.Archived,
	}

	if p.Properties.Name != nil {
		t.Title = richTextContent(p.Properties.Name.Title)
	}
	if p.Properties.Status != nil && p.Properties.Status.Select != nil {
		t.Status = task.Status(p.Properties.Status.Select.Name)
	}
	if p.Properties.Priority != nil && p.Properties.Priority.Select != nil {
		t.Priority = task.Priority(p.Properties.Priority.Select.Name)
	}
	if p.Properties.DueDate != nil && p.Properties.DueDate.Date != nil {
		if d, err := task.ParseDate(p.Properties.DueDate.Date.Start); err == nil {
			t.DueDate = &d
		}
	}
	if p.Properties.Description != nil {
		t.Description = richTextContent(p.Properties.Description.RichText)
	}
	if p.Properties.UniqueID != nil {
		uid := p.Properties.UniqueID.UniqueID
		n := &task.NumericID{Number: uid.Number}
		if uid.Prefix != nil {
			n.Prefix = *uid.Prefix
		}
		t.NumericID = n
	}
	return t
}
