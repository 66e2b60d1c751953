package settings

// ImportPolicy decides how a conflicting name (or the theme) resolves when
// merging an imported document into the current one (§4.10).
type ImportPolicy string

const (
	PolicyExisting ImportPolicy = "existing"
	PolicyImport   ImportPolicy = "import"
	PolicyCancel   ImportPolicy = "cancel"
)

// ImportConflictPreview reports every name that exists in both the current
// and the imported document, plus whether the two themes disagree, so a
// caller can decide an ImportPolicy before anything is merged.
type ImportConflictPreview struct {
	ConflictingDeletePatterns  []string
	ConflictingRenameTemplates []string
	ConflictingOutputKeys      []string
	ThemeConflict              bool
}

// HasConflicts reports whether applying the import without a resolution
// policy would silently discard or overwrite anything.
func (p ImportConflictPreview) HasConflicts() bool {
	return len(p.ConflictingDeletePatterns) > 0 ||
		len(p.ConflictingRenameTemplates) > 0 ||
		len(p.ConflictingOutputKeys) > 0 ||
		p.ThemeConflict
}

// PreviewImport computes the conflicts importing doc would introduce over
// current, without mutating either.
func PreviewImport(current, imported Document) ImportConflictPreview {
	return ImportConflictPreview{
		ConflictingDeletePatterns:  conflictingDeleteNames(current.DeletePatterns, imported.DeletePatterns),
		ConflictingRenameTemplates: conflictingRenameNames(current.RenameTemplates, imported.RenameTemplates),
		ConflictingOutputKeys:      conflictingOutputKeys(current.OutputDirectories, imported.OutputDirectories),
		ThemeConflict:              current.Theme != "" && imported.Theme != "" && current.Theme != imported.Theme,
	}
}

func conflictingDeleteNames(current, imported []DeletePattern) []string {
	names := make(map[string]bool, len(current))
	for _, p := range current {
		names[p.Name] = true
	}
	var out []string
	for _, p := range imported {
		if names[p.Name] {
			out = append(out, p.Name)
		}
	}
	return out
}

func conflictingRenameNames(current, imported []RenameTemplate) []string {
	names := make(map[string]bool, len(current))
	for _, t := range current {
		names[t.Name] = true
	}
	var out []string
	for _, t := range imported {
		if names[t.Name] {
			out = append(out, t.Name)
		}
	}
	return out
}

func conflictingOutputKeys(current, imported map[string]string) []string {
	var out []string
	for k := range imported {
		if v, ok := current[k]; ok && v != "" {
			out = append(out, k)
		}
	}
	return out
}

// MergeImport merges imported into current under policy, returning the
// resulting document without touching the Store (callers persist the
// result via Store.Save). PolicyCancel returns current unchanged.
// PolicyExisting keeps current's entry for every conflicting name/key/theme,
// still adding imported's non-conflicting entries. PolicyImport does the
// opposite: imported's entry wins on every conflict.
func MergeImport(current, imported Document, policy ImportPolicy) Document {
	if policy == PolicyCancel {
		return cloneDocument(current)
	}

	importWins := policy == PolicyImport

	out := cloneDocument(current)
	out.DeletePatterns = mergeDeletePatterns(current.DeletePatterns, imported.DeletePatterns, importWins)
	out.RenameTemplates = mergeRenameTemplates(current.RenameTemplates, imported.RenameTemplates, importWins)
	out.OutputDirectories = mergeOutputDirectories(current.OutputDirectories, imported.OutputDirectories, importWins)

	switch {
	case current.Theme == "":
		out.Theme = imported.Theme
	case imported.Theme == "" || current.Theme == imported.Theme:
		out.Theme = current.Theme
	case importWins:
		out.Theme = imported.Theme
	default:
		out.Theme = current.Theme
	}

	return out
}

func mergeDeletePatterns(current, imported []DeletePattern, importWins bool) []DeletePattern {
	byName := make(map[string]DeletePattern, len(current))
	order := make([]string, 0, len(current))
	for _, p := range current {
		byName[p.Name] = p
		order = append(order, p.Name)
	}
	for _, p := range imported {
		if _, exists := byName[p.Name]; !exists {
			order = append(order, p.Name)
			byName[p.Name] = p
			continue
		}
		if importWins {
			byName[p.Name] = p
		}
	}
	out := make([]DeletePattern, 0, len(order))
	for _, name := range order {
		out = append(out, byName[name])
	}
	return out
}

func mergeRenameTemplates(current, imported []RenameTemplate, importWins bool) []RenameTemplate {
	byName := make(map[string]RenameTemplate, len(current))
	order := make([]string, 0, len(current))
	for _, t := range current {
		byName[t.Name] = t
		order = append(order, t.Name)
	}
	for _, t := range imported {
		if _, exists := byName[t.Name]; !exists {
			order = append(order, t.Name)
			byName[t.Name] = t
			continue
		}
		if importWins {
			byName[t.Name] = t
		}
	}
	out := make([]RenameTemplate, 0, len(order))
	for _, name := range order {
		out = append(out, byName[name])
	}
	return out
}

func mergeOutputDirectories(current, imported map[string]string, importWins bool) map[string]string {
	out := make(map[string]string, len(current)+len(imported))
	for k, v := range current {
		out[k] = v
	}
	for k, v := range imported {
		if existing, ok := out[k]; !ok || existing == "" || importWins {
			out[k] = v
		}
	}
	return out
}
