package sink

import (
	"github.com/markusj1201/SoHa-Priorities/internal/model"
	"github.com/markusj1201/SoHa-Priorities/internal/tabular"
)

var debugColumns = []tabular.Column{
	{Name: "Well_Name", Kind: tabular.Text},
	{Name: "Corp_ID", Kind: tabular.Text},
	{Name: "Facility_ID", Kind: tabular.Text},
	{Name: "Area", Kind: tabular.Text},
	{Name: "Route", Kind: tabular.Text},
	{Name: "Latitude", Kind: tabular.Float},
	{Name: "Longitude", Kind: tabular.Float},
	{Name: "Priority", Kind: tabular.Text},
	{Name: "Priority_Level", Kind: tabular.Int},
	{Name: "Description", Kind: tabular.Text},
	{Name: "Assigned_To", Kind: tabular.Text},
	{Name: "Choke_Status_Created_By", Kind: tabular.Text},
	{Name: "Choke_Status_Date", Kind: tabular.Time},
	{Name: "Choke_Status_Type", Kind: tabular.Text},
	{Name: "Choke_Status_Action", Kind: tabular.Text},
	{Name: "Choke_Status_Comments", Kind: tabular.Text},
	{Name: "Yesterday_Gas_Production", Kind: tabular.Float},
	{Name: "Clean_Average_Gas", Kind: tabular.Float},
	{Name: "Grouper", Kind: tabular.Text},
	{Name: "Calc_Date", Kind: tabular.Text},
}

var finalColumns = []tabular.Column{
	{Name: "FacilityKey", Kind: tabular.Text},
	{Name: "SiteName", Kind: tabular.Text},
	{Name: "LocationID", Kind: tabular.Text},
	{Name: "Latitude", Kind: tabular.Float},
	{Name: "Longitude", Kind: tabular.Float},
	{Name: "PriorityLevel", Kind: tabular.Int},
	{Name: "Grouper", Kind: tabular.Text},
	{Name: "JobTime", Kind: tabular.Text},
	{Name: "Reason", Kind: tabular.Text},
	{Name: "Supporting_info", Kind: tabular.Text},
	{Name: "PriorityType", Kind: tabular.Text},
	{Name: "DefermentGas", Kind: tabular.Float},
	{Name: "Person_assigned", Kind: tabular.Text},
	{Name: "Job_Rank", Kind: tabular.Int},
	{Name: "CalcDate", Kind: tabular.Text},
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// DebugTable renders classified rows with the debug table's columns.
func DebugTable(rows []model.PriorityRow) *tabular.Table {
	t := tabular.New(debugColumns...)
	for _, r := range rows {
		t.Append(
			r.WellName,
			r.CorpID,
			r.FacilityID,
			r.Area,
			r.Route,
			r.Latitude,
			r.Longitude,
			string(r.PriorityType),
			int64(r.SeverityLevel),
			r.Description,
			nullable(r.AssignedTo),
			r.Coding.Author,
			r.Coding.Date,
			r.Coding.Type,
			r.Coding.Action,
			r.Coding.Comments,
			r.GasProductionYesterday,
			r.CleanAverageGas,
			nullable(string(r.Grouper)),
			r.CalcDate.Format(model.CalcDateLayout),
		)
	}
	return t
}

// FinalTable renders projected rows with the final table's columns.
func FinalTable(rows []model.FinalRow) *tabular.Table {
	t := tabular.New(finalColumns...)
	for _, r := range rows {
		t.Append(
			r.FacilityKey,
			r.SiteName,
			r.LocationID,
			r.Latitude,
			r.Longitude,
			int64(r.PriorityLevel),
			nullable(string(r.Grouper)),
			r.JobTime,
			r.Reason,
			r.SupportingInfo,
			string(r.PriorityType),
			r.DefermentGas,
			nullable(r.PersonAssigned),
			r.JobRank,
			r.CalcDate,
		)
	}
	return t
}
