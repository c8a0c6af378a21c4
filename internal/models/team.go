package models

type SkillScores struct {
	Frontend int `json:"frontend" yaml:"frontend"`
	Backend  int `json:"backend" yaml:"backend"`
	Database int `json:"database" yaml:"database"`
	Security int `json:"security" yaml:"security"`
	DevOps   int `json:"devops" yaml:"devops"`
}

type TeamMember struct {
	Username string      `json:"username" yaml:"username"`
	Role     string      `json:"role" yaml:"role"`
	Skills   SkillScores `json:"skills" yaml:"skills"`
}
