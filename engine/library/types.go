package library

type Account = string

type Sha256 = string
