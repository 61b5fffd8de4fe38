package analytics

import "github.com/tmzhouw/employment-time-machine-sub001/internal/model"

// CompanyHistory 单个企业的逐月数据（records 需为该企业的记录）
func CompanyHistory(company model.Company, records []model.Record) model.CompanyHistory {
	h := model.CompanyHistory{Company: company, Points: make([]model.CompanyPoint, 0, len(records))}
	for _, r := range records {
		if r.CompanyID != company.ID {
			continue
		}
		h.Points = append(h.Points, model.CompanyPoint{
			Month:              r.Month,
			EmployeesTotal:     r.EmployeesTotal,
			RecruitedNew:       r.RecruitedNew,
			ResignedTotal:      r.ResignedTotal,
			NetGrowth:          r.NetGrowth(),
			ShortageTotal:      r.ShortageTotal,
			ShortageDetail:     r.ShortageDetail,
			PlannedRecruitment: r.PlannedRecruitment,
			TurnoverRate:       rate(r.ResignedTotal, r.EmployeesTotal),
			Notes:              r.Notes,
		})
	}
	return h
}
