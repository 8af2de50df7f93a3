package types

// ResumeData is the best-effort output of the resume field extractor.
// Any field may be empty; the session treats empty identity fields as missing
// and routes the candidate through manual collection.
type ResumeData struct {
	PersonalInfo PersonalInfo      `json:"personal_info"`
	Skills       []string          `json:"skills"`
	Experience   []ExperienceEntry `json:"experience"`
	Education    []EducationEntry  `json:"education"`
	Summary      string            `json:"summary,omitempty"`
}

// PersonalInfo holds contact fields pulled from a resume.
type PersonalInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// ExperienceEntry is one job listed on a resume.
type ExperienceEntry struct {
	Company     string `json:"company"`
	Position    string `json:"position"`
	Duration    string `json:"duration"`
	Description string `json:"description,omitempty"`
}

// EducationEntry is one degree or program listed on a resume.
type EducationEntry struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Year        string `json:"year,omitempty"`
}

// CandidateInfo flattens the extracted resume into onboarding identity fields.
func (r *ResumeData) CandidateInfo() CandidateInfo {
	info := CandidateInfo{
		Name:    r.PersonalInfo.Name,
		Email:   r.PersonalInfo.Email,
		Phone:   r.PersonalInfo.Phone,
		Skills:  r.Skills,
		Summary: r.Summary,
	}
	info.Experience = len(r.Experience)
	if len(r.Experience) > 0 {
		info.Position = r.Experience[0].Position
	}
	if len(r.Education) > 0 {
		info.Education = r.Education[0].Degree
	}
	return info
}
