package types

type PageQuery struct {
  Limit               int
  Page                int
  Search              string
}

type Pagination struct {
  PageSize            int                       `json:"pageSize"`
  TotalCount          int64                     `json:"totalCount"`
  PageCount           int                       `json:"pageCount"`
  CurrentPage         int                       `json:"currentPage"`
  HasNext             bool                      `json:"hasNext"`
}

type Page[T any] struct {
  Data                []T                       `json:"data"`
  Pagination          Pagination                `json:"pagination"`
}
